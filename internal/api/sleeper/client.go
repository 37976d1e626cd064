package sleeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/omarshaarawi/legacybot/internal/config"
	"golang.org/x/time/rate"
)

// ErrNotFound is returned when Sleeper answers with 404 or a JSON null, which
// it does for unknown users and leagues.
var ErrNotFound = errors.New("not found")

type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

func NewClient(cfg config.Sleeper) *Client {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 10
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(perSec), max(1, int(perSec))),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
	}
}

func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for rate limiter: %w", err)
	}

	url := fmt.Sprintf("%s%s", c.baseURL, endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	q := req.URL.Query()
	for key, value := range params {
		q.Add(key, value)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	if string(raw) == "null" {
		return fmt.Errorf("%s: %w", endpoint, ErrNotFound)
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}
