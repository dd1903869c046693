package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/internal/processor"
	"github.com/richard-senior/podds/pkg/util/podds"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "TOML or YAML configuration file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	inputFile := flag.String("input", "", "JSON match request file (if not provided, flags or stdin are used)")
	outputFile := flag.String("output", "", "Output file path (if not provided, stdout will be used)")
	home := flag.Int("home", 0, "Home team id")
	away := flag.Int("away", 0, "Away team id")
	league := flag.Int("league", 0, "League id")
	season := flag.String("season", "", "Season, e.g. 2024 or 2024/2025")
	fixture := flag.Int("fixture", 0, "Optional fixture id for market odds")
	flag.Parse()

	cfg, err := podds.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger.SetShowDateTime(true)
	logger.SetLogLevel(cfg.LogLevel)
	if *debug {
		logger.SetLogLevel("debug")
	}
	// stdout carries the result
	if err := logger.SetLogOutput('f', cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "log file:", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Determine input source
	var input []byte
	switch {
	case *inputFile != "":
		input, err = os.ReadFile(*inputFile)
		if err != nil {
			logger.Fatal("Failed to read input file", err)
		}
	case *home != 0 || *away != 0:
		seasonYear, err := podds.ParseSeason(*season)
		if err != nil {
			logger.Fatal("Invalid season", err)
		}
		input, _ = json.Marshal(podds.MatchRequest{
			HomeTeamID: *home,
			AwayTeamID: *away,
			LeagueID:   *league,
			Season:     seasonYear,
			FixtureID:  *fixture,
		})
	default:
		input, err = io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read from stdin", err)
		}
	}

	p, err := processor.New(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to start", err)
	}
	defer p.Close()

	result, err := p.ProcessRequest(ctx, input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		logger.Error("Prediction failed", err)
		os.Exit(1)
	}

	// Determine output destination
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, result, 0644); err != nil {
			logger.Fatal("Failed to write to output file", err)
		}
		return
	}
	fmt.Println(string(result))
}
