package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/DD-DeCaF/metabolic-ninja/cmd"
	"github.com/DD-DeCaF/metabolic-ninja/internal/clients/sendgrid"
	"github.com/DD-DeCaF/metabolic-ninja/internal/config"
	"github.com/DD-DeCaF/metabolic-ninja/internal/database"
	"github.com/DD-DeCaF/metabolic-ninja/internal/designer"
	"github.com/DD-DeCaF/metabolic-ninja/internal/engine"
	"github.com/DD-DeCaF/metabolic-ninja/internal/messaging"
	"github.com/DD-DeCaF/metabolic-ninja/internal/telemetry"
	"github.com/DD-DeCaF/metabolic-ninja/internal/universal"
	"github.com/DD-DeCaF/metabolic-ninja/internal/worker"
)

func main() {
	log.Println("Starting design worker...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	telemetry.SetupLogger(cfg.Settings)
	flushSentry, err := telemetry.SetupSentry(cfg.Settings)
	if err != nil {
		log.Fatalf("Failed to initialize error tracking: %v", err)
	}
	defer flushSentry()

	db, err := database.NewDatabase(cfg.Postgres.URL())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	receiver, err := messaging.NewRabbitMQReceiver(cfg.RabbitMQ.URL())
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}

	notifier := worker.NewEmailNotifier(sendgrid.NewClient(cfg.SendgridAPIKey), cfg.FrontendURL)
	processor := worker.NewTaskProcessor(
		db,
		receiver,
		designer.New(engine.PluginLoader{Path: cfg.EnginePluginPath}),
		universal.NewRepository(cfg.UniversalModelDir),
		notifier,
		cfg.Concurrency,
		cfg.JobTimeout,
	)
	processor.Start()

	log.Printf("Worker started with %d consumers. Waiting for design jobs.", cfg.Concurrency)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, waiting for running jobs to finish...")
	processor.Stop()
	log.Println("Worker stopped.")
}
