package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/flow-hydraulics/mint-gate/service/app"
	"github.com/flow-hydraulics/mint-gate/service/config"
	"github.com/flow-hydraulics/mint-gate/service/http"
	log "github.com/sirupsen/logrus"
)

const version = "0.1.0"

var (
	sha1ver   string // sha1 revision used to build the program
	buildTime string // when the executable was built
)

func init() {
	log.SetLevel(log.InfoLevel)
}

func main() {
	var (
		printVersion bool
		envFilePath  string
	)

	// If we should just print the version number and exit
	flag.BoolVar(&printVersion, "version", false, "if true, print version and exit")

	// Allow configuration of envfile path
	// If not set, ParseConfig will not try to load variables to environment from a file
	flag.StringVar(&envFilePath, "envfile", "", "envfile path")

	flag.Parse()

	if printVersion {
		fmt.Printf("v%s build on %s from sha1 %s\n", version, buildTime, sha1ver)
		os.Exit(0)
	}

	opts := &config.ConfigOptions{EnvFilePath: envFilePath}
	cfg, err := config.ParseConfig(opts)
	if err != nil {
		panic(err)
	}

	if err := runServer(cfg); err != nil {
		panic(err)
	}

	os.Exit(0)
}

func runServer(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config not provided")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	logger := log.New()
	logger.SetLevel(level)

	logger.Printf("Starting server (v%s)...\n", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Chain backend and the wallet sessions connect with
	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close(logger)

	logger.WithFields(log.Fields{
		"chain":        backend.Client.Kind(),
		"candyMachine": cfg.CandyMachineID,
		"wallet":       backend.Wallet != nil,
	}).Info("Chain backend ready")

	// Application
	app := app.New(cfg, backend.Client, backend.Wallet)
	defer app.Close()

	go app.Run(ctx)

	// HTTP server
	server, err := http.NewServer(cfg, logger, app)
	if err != nil {
		return err
	}

	server.ListenAndServe()

	return nil
}
