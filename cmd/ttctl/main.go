// Command ttctl prints timetable weeks and reference lists from the timetable
// API in a terminal.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-portal/internal/grid"
	"github.com/noah-isme/sma-timetable-portal/internal/upstream"
	"github.com/noah-isme/sma-timetable-portal/pkg/config"
	"github.com/noah-isme/sma-timetable-portal/pkg/logger"
)

// app carries what every subcommand needs. It is filled in by the root
// command's PersistentPreRunE.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	client  *upstream.Client
	periods grid.Periods

	baseURL string
	verbose bool
}

func main() {
	if err := newRootCmd(&app{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ttctl",
		Short:         "Timetable in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.baseURL, "api", "", "timetable API origin (defaults to API_BASE_URL)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(newWeekCmd(a), newGroupsCmd(a), newSearchCmd(a), newPeriodsCmd(a))
	return root
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.baseURL != "" {
		cfg.API.BaseURL = a.baseURL
	}
	a.cfg = cfg

	a.logger = zap.NewNop()
	if a.verbose {
		cfg.Log.Format = "console"
		cfg.Log.Level = "debug"
		if a.logger, err = logger.New(cfg); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	a.periods = grid.DefaultPeriods
	if cfg.Grid.PeriodsFile != "" {
		if a.periods, err = grid.LoadPeriods(cfg.Grid.PeriodsFile); err != nil {
			return fmt.Errorf("load periods: %w", err)
		}
	}

	a.client, err = upstream.New(upstream.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  a.logger,
	})
	return err
}
