// Package grade maps scalar performance metrics to letter grades through
// ordered threshold tables shared by trade and draft grading.
package grade

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

type Band struct {
	Threshold float64 `yaml:"threshold" json:"-"`
	Label     string  `yaml:"label" json:"label"`
	Color     string  `yaml:"color" json:"color"`
}

// Table is ordered by descending threshold. The last band catches every
// score below the previous threshold.
type Table []Band

var Default = Table{
	{Threshold: 85, Label: "A+", Color: "#006837"},
	{Threshold: 78, Label: "A", Color: "#1a9850"},
	{Threshold: 72, Label: "A-", Color: "#66bd63"},
	{Threshold: 66, Label: "B+", Color: "#a6d96a"},
	{Threshold: 61, Label: "B", Color: "#d9ef8b"},
	{Threshold: 56, Label: "B-", Color: "#ffffbf"},
	{Threshold: 52, Label: "C+", Color: "#fee08b"},
	{Threshold: 48, Label: "C", Color: "#fdae61"},
	{Threshold: 44, Label: "C-", Color: "#f98e52"},
	{Threshold: 40, Label: "D+", Color: "#f46d43"},
	{Threshold: 35, Label: "D", Color: "#e34a33"},
	{Threshold: 30, Label: "D-", Color: "#d73027"},
	{Threshold: math.Inf(-1), Label: "F", Color: "#a50026"},
}

func (t Table) Grade(score float64) Band {
	for _, b := range t {
		if score >= b.Threshold {
			return b
		}
	}
	if len(t) == 0 {
		return Band{Label: "?"}
	}
	return t[len(t)-1]
}

// Rank returns the band index for score; lower is better.
func (t Table) Rank(score float64) int {
	for i, b := range t {
		if score >= b.Threshold {
			return i
		}
	}
	return len(t) - 1
}

func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("grade table is empty")
	}
	for i, b := range t {
		if b.Label == "" {
			return fmt.Errorf("band %d has no label", i)
		}
		if i > 0 && b.Threshold >= t[i-1].Threshold {
			return fmt.Errorf("band %q threshold %.2f is not below %q", b.Label, b.Threshold, t[i-1].Label)
		}
	}
	return nil
}

// Blend combines a rate in [0,1] and an unbounded value total into a single
// score in [0,100]. It is strictly increasing in both inputs as long as the
// weights are non-negative.
type Blend struct {
	RateWeight  float64
	ValueWeight float64
	ValueScale  float64
}

var (
	DefaultTradeBlend = Blend{RateWeight: 0.6, ValueWeight: 0.4, ValueScale: 5000}
	DefaultDraftBlend = Blend{RateWeight: 0.4, ValueWeight: 0.6, ValueScale: 150}
)

func (b Blend) Score(rate, value float64) float64 {
	rate = math.Max(0, math.Min(1, rate))
	return b.RateWeight*rate*100 + b.ValueWeight*Squash(value, b.ValueScale)
}

func (b Blend) Validate() error {
	if b.RateWeight < 0 || b.ValueWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative, got %.2f/%.2f", b.RateWeight, b.ValueWeight)
	}
	if b.RateWeight+b.ValueWeight == 0 {
		return errors.New("blend weights are both zero")
	}
	if b.ValueScale <= 0 {
		return fmt.Errorf("blend value scale must be positive, got %.2f", b.ValueScale)
	}
	return nil
}

// Squash maps any real x into (0,100) with Squash(0) == 50.
func Squash(x, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return 50 + 50*x/(math.Abs(x)+scale)
}

type Tables struct {
	Trade Table `yaml:"trade"`
	Draft Table `yaml:"draft"`
}

func Defaults() Tables {
	return Tables{Trade: Default, Draft: Default}
}

// Load reads grade tables from a YAML file. An empty path or a missing
// section falls back to Default.
func Load(path string) (Tables, error) {
	if path == "" {
		return Defaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("reading grade bands: %w", err)
	}
	var t Tables
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return Tables{}, fmt.Errorf("decoding grade bands: %w", err)
	}
	if len(t.Trade) == 0 {
		t.Trade = Default
	}
	if len(t.Draft) == 0 {
		t.Draft = Default
	}
	if err := t.Trade.Validate(); err != nil {
		return Tables{}, fmt.Errorf("trade bands: %w", err)
	}
	if err := t.Draft.Validate(); err != nil {
		return Tables{}, fmt.Errorf("draft bands: %w", err)
	}
	return t, nil
}
