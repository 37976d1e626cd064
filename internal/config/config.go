package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

type Config struct {
	TelegramBot TelegramBot
	Sleeper     Sleeper
	Valuation   Valuation
	Grading     Grading
	Server      Server
	Schedule    Schedule
}

type TelegramBot struct {
	Token  string `envconfig:"TELEGRAM_TOKEN" required:"true"`
	ChatID int64  `envconfig:"CHAT_ID" required:"true"`
}

type Sleeper struct {
	BaseURL     string        `envconfig:"SLEEPER_BASE_URL" default:"https://api.sleeper.app/v1"`
	Username    string        `envconfig:"SLEEPER_USERNAME"`
	League      string        `envconfig:"SLEEPER_LEAGUE"`
	FirstSeason int           `envconfig:"SLEEPER_FIRST_SEASON" default:"2017"`
	Timeout     time.Duration `envconfig:"SLEEPER_TIMEOUT" default:"10s"`
	RatePerSec  float64       `envconfig:"SLEEPER_RATE_PER_SEC" default:"10"`
}

type Valuation struct {
	BaseURL    string        `envconfig:"FANTASYCALC_BASE_URL" default:"https://api.fantasycalc.com"`
	Dynasty    bool          `envconfig:"FANTASYCALC_DYNASTY" default:"true"`
	Timeout    time.Duration `envconfig:"FANTASYCALC_TIMEOUT" default:"10s"`
	MaxFailure uint32        `envconfig:"FANTASYCALC_MAX_FAILURES" default:"3"`
	Cooldown   time.Duration `envconfig:"FANTASYCALC_COOLDOWN" default:"1m"`
}

type Grading struct {
	BandsFile      string  `envconfig:"GRADE_BANDS_FILE"`
	TradeWinWeight float64 `envconfig:"TRADE_WIN_RATE_WEIGHT" default:"0.6"`
	TradeNetWeight float64 `envconfig:"TRADE_NET_VALUE_WEIGHT" default:"0.4"`
	TradeNetScale  float64 `envconfig:"TRADE_NET_VALUE_SCALE" default:"5000"`
	DraftHitWeight float64 `envconfig:"DRAFT_HIT_RATE_WEIGHT" default:"0.4"`
	DraftWARWeight float64 `envconfig:"DRAFT_SURPLUS_WEIGHT" default:"0.6"`
	DraftWARScale  float64 `envconfig:"DRAFT_SURPLUS_SCALE" default:"150"`
	HitThreshold   float64 `envconfig:"DRAFT_HIT_THRESHOLD" default:"30"`
	BustThreshold  float64 `envconfig:"DRAFT_BUST_THRESHOLD" default:"-30"`
}

type Server struct {
	Addr string `envconfig:"HTTP_ADDR" default:":80"`
	Mode string `envconfig:"GIN_MODE" default:"release"`
}

type Schedule struct {
	Location     string `envconfig:"SCHEDULE_TZ" default:"America/Chicago"`
	ValuationJob string `envconfig:"VALUATION_CRON" default:"0 6 * * *"`
	RecapJob     string `envconfig:"RECAP_CRON" default:"30 7 * * 2"`
}

func New() (*Config, error) {
	var c Config
	err := envconfig.Process("", &c)
	if err != nil {
		return nil, err
	}
	if err := c.Schedule.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// NewOffline loads configuration for tools that never talk to Telegram.
func NewOffline() (*Config, error) {
	var c Config
	for _, section := range []interface{}{&c.Sleeper, &c.Valuation, &c.Grading} {
		if err := envconfig.Process("", section); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

func (s Schedule) validate() error {
	for name, spec := range map[string]string{"VALUATION_CRON": s.ValuationJob, "RECAP_CRON": s.RecapJob} {
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, spec, err)
		}
	}
	return nil
}
