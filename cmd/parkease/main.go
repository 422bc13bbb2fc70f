package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parkease/internal/analytics"
	"parkease/internal/config"
	"parkease/internal/facility"
	"parkease/internal/logging"
	"parkease/internal/server"
	"parkease/internal/shell"
	"parkease/internal/storage"
	"parkease/internal/telemetry"
)

var mode = flag.String("mode", "cli", "Mode to run: cli, server, or both")

func main() {
	flag.Parse()

	cfg := config.Load()
	logging.Init(cfg.IsDevelopment())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryProvider, err := telemetry.NewProvider()
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	store, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	controller, err := facility.NewController(cfg.LotNumber, store)
	if err != nil {
		log.Fatalf("Failed to create facility controller: %v", err)
	}

	instrumented, err := facility.NewInstrumentedController(controller, telemetryProvider)
	if err != nil {
		log.Fatalf("Failed to instrument facility controller: %v", err)
	}

	if err := instrumented.Load(ctx); err != nil {
		log.Fatalf("Failed to load facility state: %v", err)
	}

	reporter := analytics.NewReporter(store)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	switch *mode {
	case "cli":
		runCLI(ctx, cancel, instrumented, reporter, telemetryProvider, sigChan)
	case "server":
		runServer(ctx, cancel, cfg, instrumented, reporter, telemetryProvider, sigChan)
	case "both":
		runBoth(ctx, cancel, cfg, instrumented, reporter, telemetryProvider, sigChan)
	default:
		log.Fatalf("Invalid mode: %s. Must be cli, server, or both", *mode)
	}
}

func runCLI(ctx context.Context, cancel context.CancelFunc, controller *facility.InstrumentedController,
	reporter *analytics.Reporter, telemetryProvider *telemetry.Provider, sigChan chan os.Signal) {

	go func() {
		<-sigChan
		log.Println("Shutting down...")
		cancel()
	}()

	sh := shell.New(controller, reporter, telemetryProvider)
	sh.Run(ctx)

	shutdownTelemetry(telemetryProvider)
}

func runServer(ctx context.Context, cancel context.CancelFunc, cfg *config.Config,
	controller *facility.InstrumentedController, reporter *analytics.Reporter,
	telemetryProvider *telemetry.Provider, sigChan chan os.Signal) {

	srv := server.NewServer(cfg.ServerPort, controller, reporter)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting server mode on port %s", cfg.ServerPort)
	if err := srv.Start(); err != nil && err != context.Canceled {
		log.Printf("Server error: %v", err)
	}

	shutdownTelemetry(telemetryProvider)
}

func runBoth(ctx context.Context, cancel context.CancelFunc, cfg *config.Config,
	controller *facility.InstrumentedController, reporter *analytics.Reporter,
	telemetryProvider *telemetry.Provider, sigChan chan os.Signal) {

	srv := server.NewServer(cfg.ServerPort, controller, reporter)

	serverDone := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.ServerPort)
		serverDone <- srv.Start()
	}()

	cliDone := make(chan bool, 1)
	go func() {
		sh := shell.New(controller, reporter, telemetryProvider)
		sh.Run(ctx)
		cliDone <- true
	}()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}

		cancel()
	}()

	select {
	case err := <-serverDone:
		if err != nil && err != context.Canceled {
			log.Printf("Server error: %v", err)
		}
	case <-cliDone:
		log.Println("CLI exited")
	case <-ctx.Done():
		log.Println("Context cancelled")
	}

	shutdownTelemetry(telemetryProvider)
}

func shutdownTelemetry(telemetryProvider *telemetry.Provider) {
	log.Println("Shutting down telemetry...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := telemetryProvider.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down telemetry: %v", err)
	}
}
