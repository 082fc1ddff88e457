// Package cli defines the Cobra commands of the lsrp tool.
// This file contains the root command, shared flags and config loading.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/lsrp-capaset/internal/config"
	"github.com/elektrokombinacija/lsrp-capaset/internal/logging"
)

var version = "dev" // set via ldflags at build time

// ErrUnsolved is returned when a run ends without every agent at its goal.
var ErrUnsolved = errors.New("cli: plan incomplete")

// app holds what the root command resolves before a subcommand runs.
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	logFile    string

	cfg    *config.Config
	log    zerolog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	cmd := &cobra.Command{
		Use:   "lsrp",
		Short: "Capacity-aware asynchronous multi-agent path planner",
		Long: `lsrp plans collision-free routes for many agents on graphs whose
vertices may hold more than one agent. Agents move asynchronously with
their own speeds, push lower-priority agents out of the way and swap
along edges when both ends are occupied.`,
		Version:            version,
		SilenceErrors:      true,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	f := cmd.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", config.FileName, "config file")
	f.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&a.logFormat, "log-format", "", "log format (console, json)")
	f.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")

	cmd.AddCommand(newInitCmd(a))
	cmd.AddCommand(newSolveCmd(a))
	cmd.AddCommand(newGenCmd(a))
	cmd.AddCommand(newBenchCmd(a))
	cmd.AddCommand(newSimulateCmd(a))
	return cmd
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.logFile != "" {
		cfg.Log.File = a.logFile
	}

	log, closer, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg, a.log, a.closer = cfg, log, closer
	return nil
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// loadConfig reads path. A missing default config falls back to defaults;
// a missing explicit one is an error.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.ReadConfig(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, os.ErrNotExist) {
		return config.DefaultConfig(), nil
	}
	return nil, err
}

func newInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		// the config does not exist yet
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(a.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists; use --force to overwrite", a.configPath)
			}
			if err := config.WriteConfig(a.configPath, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", a.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
