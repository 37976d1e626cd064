package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/omarshaarawi/legacybot/internal/analytics/drafts"
	"github.com/omarshaarawi/legacybot/internal/analytics/lineage"
	"github.com/omarshaarawi/legacybot/internal/analytics/records"
	"github.com/omarshaarawi/legacybot/internal/analytics/trajectory"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/repository/memory"
	"github.com/omarshaarawi/legacybot/internal/service"
)

const (
	commandTimeout = 2 * time.Minute
	maxMessageLen  = 4096
)

const helpText = `Available commands:
/user <sleeper username> - Follow a Sleeper user in this chat
/leagues - List the user's leagues
/overview [league] - All-time records and champions
/records [league] - League record book
/luck [league] - Luck against the all-play schedule
/trades [league] - Trade grades and history
/drafts [league] - Draft grades
/trajectory [league] - Wins above replacement by season
/outlook [league] - Contention window for the next seasons
/recap [league] - Latest week's scores and trophies`

// History is the subset of *service.HistoryService the commands need.
type History interface {
	GetLineages(ctx context.Context, username string) (service.User, []lineage.Lineage, error)
	GetOverview(ctx context.Context, username, name string) (*service.Overview, error)
	GetRecords(ctx context.Context, username, name string) (records.Book, error)
	GetLuck(ctx context.Context, username, name string) (*service.LuckReport, error)
	GetTrades(ctx context.Context, username, name string) (*service.TradeReport, error)
	GetDrafts(ctx context.Context, username, name string) (drafts.LineageDrafts, error)
	GetTrajectory(ctx context.Context, username, name string) ([]trajectory.Trajectory, error)
	GetOutlook(ctx context.Context, username, name string) (*service.OutlookReport, error)
	GetWeeklyRecap(ctx context.Context, username, name string) (*service.WeeklyRecap, error)
}

type sectionFunc func(ctx context.Context, username, name string) (string, error)

type Handler struct {
	history  History
	repo     *memory.Repository
	defaults config.Sleeper
	sections map[string]sectionFunc
}

func NewHandler(history History, repo *memory.Repository, defaults config.Sleeper) *Handler {
	h := &Handler{history: history, repo: repo, defaults: defaults}
	h.sections = map[string]sectionFunc{
		"overview":   render(history.GetOverview, service.FormatOverview),
		"records":    render(history.GetRecords, service.FormatRecords),
		"luck":       render(history.GetLuck, service.FormatLuck),
		"trades":     render(history.GetTrades, service.FormatTrades),
		"drafts":     render(history.GetDrafts, service.FormatDrafts),
		"trajectory": render(history.GetTrajectory, service.FormatTrajectory),
		"outlook":    render(history.GetOutlook, service.FormatOutlook),
		"recap":      render(history.GetWeeklyRecap, service.FormatRecap),
	}
	return h
}

func render[T any](fetch func(context.Context, string, string) (T, error), format func(T) string) sectionFunc {
	return func(ctx context.Context, username, name string) (string, error) {
		result, err := fetch(ctx, username, name)
		if err != nil {
			return "", err
		}
		return format(result), nil
	}
}

func (h *Handler) HandleCommand(ctx context.Context, update tgbotapi.Update) tgbotapi.MessageConfig {
	chatID := update.Message.Chat.ID
	msg := tgbotapi.NewMessage(chatID, "")
	command := strings.ToLower(update.Message.Command())
	args := strings.TrimSpace(update.Message.CommandArguments())
	msg.ParseMode = "Markdown"

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	switch command {
	case "start":
		msg.Text = "Welcome to LegacyBot! Set your Sleeper user with /user <username>, then use /help to see available commands."
	case "help":
		msg.Text = helpText
	case "user":
		h.handleUser(ctx, &msg, chatID, args)
	case "leagues":
		h.handleLeagues(ctx, &msg, chatID)
	default:
		section, ok := h.sections[command]
		if !ok {
			msg.Text = "Unknown command. Use /help to see available commands."
			break
		}
		h.handleSection(ctx, &msg, chatID, command, section, args)
	}

	msg.Text = truncate(msg.Text)
	return msg
}

func (h *Handler) handleUser(ctx context.Context, msg *tgbotapi.MessageConfig, chatID int64, args string) {
	if args == "" {
		msg.Text = "Please provide a Sleeper username. Usage: /user <username>"
		return
	}
	user, lineages, err := h.history.GetLineages(ctx, args)
	if err != nil {
		msg.Text = errorText("looking up user", err)
		return
	}
	h.repo.SaveUsername(chatID, user.Username)
	msg.Text = service.FormatLineages(user, lineages)
}

func (h *Handler) handleLeagues(ctx context.Context, msg *tgbotapi.MessageConfig, chatID int64) {
	username, ok := h.username(chatID)
	if !ok {
		msg.Text = "No Sleeper user set. Use /user <username> first."
		return
	}
	user, lineages, err := h.history.GetLineages(ctx, username)
	if err != nil {
		msg.Text = errorText("fetching leagues", err)
		return
	}
	msg.Text = service.FormatLineages(user, lineages)
}

func (h *Handler) handleSection(ctx context.Context, msg *tgbotapi.MessageConfig, chatID int64, command string, section sectionFunc, args string) {
	username, ok := h.username(chatID)
	if !ok {
		msg.Text = "No Sleeper user set. Use /user <username> first."
		return
	}
	name, err := h.leagueName(ctx, username, args)
	if err != nil {
		msg.Text = errorText("finding league", err)
		return
	}
	text, err := section(ctx, username, name)
	if err != nil {
		slog.Error("Error handling command", "command", command, "username", username, "league", name, "error", err)
		msg.Text = errorText("fetching "+command, err)
		return
	}
	msg.Text = text
}

func (h *Handler) username(chatID int64) (string, bool) {
	if username, ok := h.repo.GetUsername(chatID); ok {
		return username, true
	}
	return h.defaults.Username, h.defaults.Username != ""
}

// leagueName resolves the command argument to a lineage name. Without an
// argument it uses the configured league, else the most recent one.
func (h *Handler) leagueName(ctx context.Context, username, query string) (string, error) {
	_, lineages, err := h.history.GetLineages(ctx, username)
	if err != nil {
		return "", err
	}
	if len(lineages) == 0 {
		return "", fmt.Errorf("%s has no leagues: %w", username, service.ErrLineageNotFound)
	}
	if query == "" {
		query = h.defaults.League
	}
	if query == "" {
		return lineages[0].Name, nil
	}
	l, ok := matchLineage(lineages, query)
	if !ok {
		return "", fmt.Errorf("%q: %w", query, service.ErrLineageNotFound)
	}
	return l.Name, nil
}

func errorText(action string, err error) string {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		return "Sleeper user not found. Check the spelling and try /user again."
	case errors.Is(err, service.ErrLineageNotFound):
		return "No league matches that name. Use /leagues to list them."
	case errors.Is(err, service.ErrUpstreamUnavailable):
		return "Couldn't fetch league data from Sleeper right now. Try again in a few minutes."
	default:
		return fmt.Sprintf("Error %s: %v", action, err)
	}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxMessageLen {
		return text
	}
	return string(runes[:maxMessageLen-1]) + "…"
}
