package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/richard-senior/podds/internal/logger"
	"github.com/richard-senior/podds/internal/processor"
	"github.com/richard-senior/podds/pkg/server"
	"github.com/richard-senior/podds/pkg/transport"
	"github.com/richard-senior/podds/pkg/util/podds"
)

func main() {
	configPath := flag.String("config", "", "TOML or YAML configuration file")
	transportName := flag.String("transport", "", "stdio or http, overrides the configuration")
	flag.Parse()

	cfg, err := podds.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *transportName != "" {
		cfg.Transport = *transportName
		if err := podds.ValidateConfig(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "config:", err)
			os.Exit(2)
		}
	}
	if err := podds.UpdateConfig(cfg); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	// Configure logging
	logger.SetShowDateTime(true)
	logger.SetLogLevel(cfg.LogLevel)
	output := 'f'
	if len(cfg.LogOutput) > 0 {
		output = rune(cfg.LogOutput[0])
	}
	// stdout is the JSON-RPC channel when speaking stdio
	if cfg.Transport == "stdio" && output != 'f' {
		output = 'f'
	}
	if err := logger.SetLogOutput(output, cfg.LogFile); err != nil {
		fmt.Fprintln(os.Stderr, "log output:", err)
	}
	defer logger.Close()

	logger.Info("Starting podds", cfg.Transport)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := processor.New(ctx, cfg)
	if err != nil {
		logger.Error("Startup failed:", err)
		os.Exit(1)
	}
	defer p.Close()

	switch cfg.Transport {
	case "http":
		s := server.New(nil)
		s.RegisterTools(p.Tools.Definitions())
		h := transport.NewHTTPServer(cfg.HttpAddr, s)
		h.Router().HandleFunc("/predictions", p.Tools.PredictionsHandler).Methods("GET")
		err = h.ListenAndServe(ctx)
	default:
		s := server.New(transport.NewStdioTransport())
		s.RegisterTools(p.Tools.Definitions())
		err = s.Start(ctx)
	}
	if err != nil {
		logger.Error("Server error:", err)
		os.Exit(1)
	}
	logger.Info("podds shutting down")
}
