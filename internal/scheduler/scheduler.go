package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/service"
)

const jobTimeout = 5 * time.Minute

// Jobs is what the scheduled tasks call into. *service.HistoryService
// satisfies it.
type Jobs interface {
	RefreshValues(ctx context.Context) error
	GetWeeklyRecap(ctx context.Context, username, name string) (*service.WeeklyRecap, error)
}

type Scheduler struct {
	s           gocron.Scheduler
	cfg         config.Schedule
	jobs        Jobs
	username    string
	league      string
	sendMessage func(string) error
}

// NewScheduler builds the scheduler. The weekly recap only runs when a
// default username and league are configured.
func NewScheduler(cfg config.Schedule, sleeperCfg config.Sleeper, jobs Jobs, sendMessage func(string) error) (*Scheduler, error) {
	location, err := time.LoadLocation(cfg.Location)
	if err != nil {
		slog.Error("Failed to load location, using UTC", "location", cfg.Location, "error", err)
		location = time.UTC
	}

	s, err := gocron.NewScheduler(
		gocron.WithLocation(location),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{
		s:           s,
		cfg:         cfg,
		jobs:        jobs,
		username:    sleeperCfg.Username,
		league:      sleeperCfg.League,
		sendMessage: sendMessage,
	}, nil
}

func (s *Scheduler) Start() error {
	var err error

	// Player values - daily
	_, err = s.s.NewJob(
		gocron.CronJob(s.cfg.ValuationJob, false),
		gocron.NewTask(s.refreshValues),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to create valuation job: %w", err)
	}

	if s.username == "" || s.league == "" {
		slog.Info("No default league configured, skipping weekly recap")
	} else {
		// Weekly recap - Tuesday morning by default
		_, err = s.s.NewJob(
			gocron.CronJob(s.cfg.RecapJob, false),
			gocron.NewTask(s.sendRecap),
		)
		if err != nil {
			return fmt.Errorf("failed to create recap job: %w", err)
		}
	}

	s.s.Start()
	return nil
}

func (s *Scheduler) Stop() error {
	return s.s.Shutdown()
}

func (s *Scheduler) refreshValues() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.jobs.RefreshValues(ctx); err != nil {
		slog.Error("Failed to refresh player values", "error", err)
		return
	}
	slog.Info("Refreshed player values")
}

func (s *Scheduler) sendRecap() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	recap, err := s.jobs.GetWeeklyRecap(ctx, s.username, s.league)
	if err != nil {
		slog.Error("Failed to get weekly recap", "league", s.league, "error", err)
		return
	}
	if recap.Week == 0 {
		return
	}
	if err := s.sendMessage(service.FormatRecap(recap)); err != nil {
		slog.Error("Failed to send weekly recap", "error", err)
	}
}
