package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lessonalloc/app"
	"github.com/kilianp07/lessonalloc/config"
	coremon "github.com/kilianp07/lessonalloc/core/monitoring"
	"github.com/kilianp07/lessonalloc/infra/logger"
	"github.com/kilianp07/lessonalloc/infra/monitoring"
)

var (
	cfgPath string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "lessonalloc",
	Short:             "Allocate requested lessons to time slots and teachers",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runAllocation,
	PersistentPostRun: func(*cobra.Command, []string) {
		coremon.Flush(2 * time.Second)
		_ = logger.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Configure(cfg.Log); err != nil {
		return fmt.Errorf("configure logger: %w", err)
	}
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		logger.New("main").Warnf("sentry disabled: %v", err)
	} else {
		coremon.Init(mon)
	}
	return nil
}

func newService() (*app.Service, func(), error) {
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return svc, func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}, nil
}
