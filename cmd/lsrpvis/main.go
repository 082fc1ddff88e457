// Command lsrpvis plays back LSRP plans in a window.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
	"github.com/spf13/pflag"

	"github.com/elektrokombinacija/lsrp-capaset/internal/config"
	"github.com/elektrokombinacija/lsrp-capaset/internal/logging"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/session"
)

func main() {
	var (
		configPath string
		planPath   string
		logLevel   string
	)
	pflag.StringVarP(&configPath, "config", "c", config.FileName, "config file with planner settings")
	pflag.StringVarP(&planPath, "plan", "p", "", "show this exported plan instead of planning")
	pflag.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: lsrpvis [flags] <scenario.yaml>\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()
	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	log, err := logging.New(os.Stderr, logging.Options{Level: logLevel})
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	cfg, err := config.ReadConfig(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist) && !pflag.CommandLine.Changed("config"):
		cfg = config.DefaultConfig()
	case err != nil:
		log.Fatal().Err(err).Msg("reading config")
	}
	opts, err := cfg.Planner.Options()
	if err != nil {
		log.Fatal().Err(err).Msg("planner settings")
	}

	st, err := session.Open(context.Background(), session.Config{
		Scenario:  pflag.Arg(0),
		Plan:      planPath,
		Options:   opts,
		TimeLimit: cfg.Planner.TimeLimit,
		Eps:       cfg.Planner.Eps,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("preparing plan")
	}

	go func() {
		window := new(app.Window)
		window.Option(
			app.Title("LSRP Viewer: "+st.Instance.Name),
			app.Size(unit.Dp(1400), unit.Dp(900)),
		)

		if err := vis.NewApp(st).Run(window); err != nil {
			log.Fatal().Err(err).Msg("viewer")
		}
		os.Exit(0)
	}()
	app.Main()
}
