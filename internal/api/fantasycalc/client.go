// Package fantasycalc fetches player trade values. Calls go through a
// circuit breaker so a struggling provider degrades the value-dependent
// analytics instead of stalling every request.
package fantasycalc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/models"
	"github.com/sony/gobreaker"
)

// ErrUnavailable means the breaker is open or the provider failed.
var ErrUnavailable = errors.New("valuation provider unavailable")

type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	baseURL    string
	now        func() time.Time
}

func NewClient(cfg config.Valuation) *Client {
	maxFailures := cfg.MaxFailure
	if maxFailures == 0 {
		maxFailures = 3
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "fantasycalc",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    cb,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		now:        time.Now,
	}
}

// Values fetches the current value list for a format and returns it as a
// snapshot keyed by Sleeper player id.
func (c *Client) Values(ctx context.Context, format models.ValuationFormat) (models.ValueSnapshot, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, format)
	})
	if err != nil {
		return models.ValueSnapshot{}, fmt.Errorf("fetching values: %w: %w", ErrUnavailable, err)
	}
	values := res.([]models.FantasyCalcValue)

	snap := models.ValueSnapshot{
		Format:  format,
		TakenAt: c.now(),
		Values:  make(map[string]models.PlayerValue, len(values)),
	}
	for _, v := range values {
		if v.Player.SleeperID == "" {
			continue
		}
		snap.Values[v.Player.SleeperID] = models.PlayerValue{
			PlayerID: v.Player.SleeperID,
			Name:     v.Player.Name,
			Position: v.Player.Position,
			Age:      v.Player.MaybeAge,
			Value:    v.Value,
		}
	}
	return snap, nil
}

func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) fetch(ctx context.Context, format models.ValuationFormat) ([]models.FantasyCalcValue, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/values/current", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	q := req.URL.Query()
	q.Set("isDynasty", strconv.FormatBool(format.Dynasty))
	q.Set("numQbs", strconv.Itoa(format.NumQBs))
	q.Set("numTeams", strconv.Itoa(format.NumTeam))
	q.Set("ppr", strconv.FormatFloat(format.PPR, 'f', -1, 64))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var values []models.FantasyCalcValue
	if err := json.NewDecoder(resp.Body).Decode(&values); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return values, nil
}
