// Command analyze runs a single matchup analysis and prints the JSON result.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	app "github.com/okian/mlbedge/internal/app"
	"github.com/okian/mlbedge/internal/config"
	"github.com/okian/mlbedge/pkg/logger"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const defaultTimeout = 2 * time.Minute

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		home        = fs.Int("home", 0, "Home team ID")
		away        = fs.Int("away", 0, "Away team ID")
		homePitcher = fs.Int("home-pitcher", 0, "Home starting pitcher ID (optional)")
		awayPitcher = fs.Int("away-pitcher", 0, "Away starting pitcher ID (optional)")
		spread      = fs.Float64("spread", 0, "Market run line from the home side")
		total       = fs.Float64("total", 0, "Market total runs")
		weather     = fs.String("weather", "normal", "Weather: normal, dome, wind_out, wind_in, hot, cold, rain")
		timeout     = fs.Duration("timeout", defaultTimeout, "Overall deadline")
		verbose     = fs.Bool("verbose", false, "Log to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	log := logger.Nop()
	if *verbose {
		if err := logger.InitWithWriter(stderr); err != nil {
			fmt.Fprintln(stderr, "failed to initialize logging:", err)
			return exitFailure
		}
		log = logger.Get()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "failed to load config:", err)
		return exitFailure
	}
	if *verbose {
		_ = logger.SetLevelString(cfg.LogLevel)
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	svc := app.New(app.WithConfig(cfg), app.WithLogger(log))
	if err := svc.Start(ctx); err != nil {
		fmt.Fprintln(stderr, "failed to start analyzer:", err)
		return exitFailure
	}
	defer svc.Stop()

	result, err := svc.Analyze(ctx, app.AnalyzeRequest{
		HomeTeamID:    *home,
		AwayTeamID:    *away,
		HomePitcherID: *homePitcher,
		AwayPitcherID: *awayPitcher,
		MarketSpread:  *spread,
		MarketTotal:   *total,
		Weather:       *weather,
	})
	if err != nil {
		msg, _ := app.UserMessage(err)
		fmt.Fprintln(stderr, msg)
		if errors.Is(err, app.ErrValidation) {
			return exitUsage
		}
		return exitFailure
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintln(stderr, "failed to write result:", err)
		return exitFailure
	}
	return exitOK
}
