package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobs struct {
	refreshErr error
	recap      *service.WeeklyRecap
	refreshes  int
	recapFor   []string
}

func (f *fakeJobs) RefreshValues(context.Context) error {
	f.refreshes++
	return f.refreshErr
}

func (f *fakeJobs) GetWeeklyRecap(_ context.Context, username, name string) (*service.WeeklyRecap, error) {
	f.recapFor = append(f.recapFor, username+"/"+name)
	if f.recap == nil {
		return nil, errors.New("no recap")
	}
	return f.recap, nil
}

var schedule = config.Schedule{Location: "America/Chicago", ValuationJob: "0 6 * * *", RecapJob: "30 7 * * 2"}

func TestJobsRegistered(t *testing.T) {
	tests := []struct {
		name     string
		sleeper  config.Sleeper
		expected int
	}{
		{"with default league", config.Sleeper{Username: "alice", League: "Dynasty"}, 2},
		{"without default league", config.Sleeper{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScheduler(schedule, tt.sleeper, &fakeJobs{}, func(string) error { return nil })
			require.NoError(t, err)
			require.NoError(t, s.Start())
			assert.Len(t, s.s.Jobs(), tt.expected)
			require.NoError(t, s.Stop())
		})
	}
}

func TestBadLocationFallsBackToUTC(t *testing.T) {
	cfg := schedule
	cfg.Location = "Nowhere/Special"
	s, err := NewScheduler(cfg, config.Sleeper{}, &fakeJobs{}, func(string) error { return nil })
	require.NoError(t, err)
	require.NoError(t, s.Start())
	require.NoError(t, s.Stop())
}

func TestInvalidCronFailsStart(t *testing.T) {
	cfg := schedule
	cfg.ValuationJob = "not a cron"
	s, err := NewScheduler(cfg, config.Sleeper{}, &fakeJobs{}, func(string) error { return nil })
	require.NoError(t, err)
	assert.Error(t, s.Start())
}

func TestSendRecap(t *testing.T) {
	jobs := &fakeJobs{recap: &service.WeeklyRecap{
		League: "Dynasty", Season: 2023, Week: 3,
		Scores:   []service.ScoreLine{{Home: "Alice", Away: "Bob", HomePoints: 110, AwayPoints: 100}},
		Trophies: []service.Trophy{{Category: "High Score", Name: "Alice", Value: 110}},
	}}
	var sent []string
	s, err := NewScheduler(schedule, config.Sleeper{Username: "alice", League: "Dynasty"}, jobs, func(msg string) error {
		sent = append(sent, msg)
		return nil
	})
	require.NoError(t, err)

	s.sendRecap()
	assert.Equal(t, []string{"alice/Dynasty"}, jobs.recapFor)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "Week 3")
	assert.Contains(t, sent[0], "Highest Score: Alice (110.00)")

	jobs.recap.Week = 0
	s.sendRecap()
	assert.Len(t, sent, 1, "nothing is sent before the first scored week")

	jobs.recap = nil
	s.sendRecap()
	assert.Len(t, sent, 1)
}

func TestRefreshValues(t *testing.T) {
	jobs := &fakeJobs{}
	s, err := NewScheduler(schedule, config.Sleeper{}, jobs, func(string) error { return nil })
	require.NoError(t, err)

	s.refreshValues()
	jobs.refreshErr = errors.New("down")
	s.refreshValues()
	assert.Equal(t, 2, jobs.refreshes)
}
