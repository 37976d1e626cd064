package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/omarshaarawi/legacybot/internal/api/fantasy"
	"github.com/omarshaarawi/legacybot/internal/api/fantasycalc"
	"github.com/omarshaarawi/legacybot/internal/api/sleeper"
	"github.com/omarshaarawi/legacybot/internal/config"
	"github.com/omarshaarawi/legacybot/internal/repository/memory"
	"github.com/omarshaarawi/legacybot/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var Cmd = &cobra.Command{
	Use:   "leaguereport",
	Short: "Print league history sections for a Sleeper user",
	Long: "Print league history sections for a Sleeper user.\n\n" +
		"Without --league the user's leagues are listed.",
	SilenceUsage: true,
	RunE:         run,
}

var args struct {
	user    string
	league  string
	section string
	format  string
	timeout time.Duration
}

type report struct {
	data any
	text string
}

type sectionFunc func(ctx context.Context, svc *service.HistoryService, username, name string) (report, error)

var sections = map[string]sectionFunc{
	"overview":   section((*service.HistoryService).GetOverview, service.FormatOverview),
	"records":    section((*service.HistoryService).GetRecords, service.FormatRecords),
	"luck":       section((*service.HistoryService).GetLuck, service.FormatLuck),
	"trades":     section((*service.HistoryService).GetTrades, service.FormatTrades),
	"drafts":     section((*service.HistoryService).GetDrafts, service.FormatDrafts),
	"trajectory": section((*service.HistoryService).GetTrajectory, service.FormatTrajectory),
	"outlook":    section((*service.HistoryService).GetOutlook, service.FormatOutlook),
	"recap":      section((*service.HistoryService).GetWeeklyRecap, service.FormatRecap),
}

func section[T any](fetch func(*service.HistoryService, context.Context, string, string) (T, error), format func(T) string) sectionFunc {
	return func(ctx context.Context, svc *service.HistoryService, username, name string) (report, error) {
		result, err := fetch(svc, ctx, username, name)
		if err != nil {
			return report{}, err
		}
		return report{data: result, text: format(result)}, nil
	}
}

func sectionNames() []string {
	names := make([]string, 0, len(sections))
	for name := range sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Cmd.Flags().StringVarP(&args.user, "user", "u", "", "Sleeper username (defaults to SLEEPER_USERNAME)")
	Cmd.Flags().StringVarP(&args.league, "league", "l", "", "exact league name")
	Cmd.Flags().StringVarP(&args.section, "section", "s", "overview", "one of "+strings.Join(sectionNames(), ", "))
	Cmd.Flags().StringVarP(&args.format, "format", "f", "text", "output format: text, json or yaml")
	Cmd.Flags().DurationVar(&args.timeout, "timeout", 2*time.Minute, "overall deadline")
}

func main() {
	if err := Cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file", "error", err)
	}
	cfg, err := config.NewOffline()
	if err != nil {
		return err
	}
	if args.user == "" {
		args.user = cfg.Sleeper.Username
	}
	if args.user == "" {
		return fmt.Errorf("--user is required")
	}
	fetch, ok := sections[args.section]
	if !ok {
		return fmt.Errorf("unknown section %q, want one of %s", args.section, strings.Join(sectionNames(), ", "))
	}

	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}
	api := fantasy.NewAPI(sleeper.NewAPI(sleeper.NewClient(cfg.Sleeper)), fantasycalc.NewClient(cfg.Valuation))
	svc := service.NewHistoryService(api, memory.NewRepository(), opts)

	ctx, cancel := context.WithTimeout(cmd.Context(), args.timeout)
	defer cancel()

	var r report
	if args.league == "" {
		user, lineages, err := svc.GetLineages(ctx, args.user)
		if err != nil {
			return err
		}
		r = report{
			data: map[string]any{"user": user, "lineages": lineages},
			text: service.FormatLineages(user, lineages),
		}
	} else {
		r, err = fetch(ctx, svc, args.user, args.league)
		if err != nil {
			return err
		}
	}
	return write(cmd.OutOrStdout(), args.format, r)
}

func write(w io.Writer, format string, r report) error {
	switch format {
	case "text":
		_, err := io.WriteString(w, r.text)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r.data)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r.data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q, want text, json or yaml", format)
	}
}
