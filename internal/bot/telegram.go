package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

// Telegram drops bot traffic above roughly 30 messages per second.
const (
	sendRate  = 25
	sendBurst = 5
)

type TelegramBot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	chatID  int64
	limiter *rate.Limiter
}

func NewTelegramBot(token string, chatID int64, handler *Handler) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connecting to telegram: %w", err)
	}

	return &TelegramBot{
		api:     api,
		handler: handler,
		chatID:  chatID,
		limiter: rate.NewLimiter(sendRate, sendBurst),
	}, nil
}

// Start long-polls for commands until ctx is done. Each command is answered
// on its own goroutine since section commands can take several upstream
// round trips.
func (t *TelegramBot) Start(ctx context.Context) error {
	slog.Info("Telegram bot authorized", "username", t.api.Self.UserName)
	poll := tgbotapi.NewUpdate(0)
	poll.Timeout = 60

	updates := t.api.GetUpdatesChan(poll)
	defer t.api.StopReceivingUpdates()

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				_ = t.reply(ctx, t.handler.HandleCommand(ctx, update))
			}()
		}
	}
}

// SendMessage posts to the configured group chat. The scheduler uses it for
// the weekly recap.
func (t *TelegramBot) SendMessage(text string) error {
	if t.chatID == 0 {
		return errors.New("telegram chat id not configured")
	}

	msg := tgbotapi.NewMessage(t.chatID, truncate(text))
	msg.ParseMode = tgbotapi.ModeMarkdown
	return t.reply(context.Background(), msg)
}

func (t *TelegramBot) reply(ctx context.Context, msg tgbotapi.MessageConfig) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting to send: %w", err)
	}
	if _, err := t.api.Send(msg); err != nil {
		slog.Error("Error sending message", "chat_id", msg.ChatID, "error", err)
		return fmt.Errorf("sending to chat %d: %w", msg.ChatID, err)
	}
	return nil
}
