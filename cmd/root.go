package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/carbontrip/app"
	"github.com/kilianp07/carbontrip/config"
	"github.com/kilianp07/carbontrip/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "carbontrip",
	Short: "Trip carbon estimation and eco-routing predictions",
	RunE:  run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// run serves metrics until interrupted.
func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return withService(ctx, false, func(ctx context.Context, svc *app.Service) error {
		return svc.Run(ctx)
	})
}

// withService builds the service for one command. replayJournal loads the
// stored journeys first so predictions see the history.
func withService(ctx context.Context, replayJournal bool, fn func(context.Context, *app.Service) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if replayJournal {
		cfg.Journal.ReplayOnStart = true
	}
	svc, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	return fn(ctx, svc)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseTime accepts RFC 3339, "2006-01-02T15:04" or a bare date. Empty
// returns the zero time, which the engines read as now.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", time.DateOnly} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}
