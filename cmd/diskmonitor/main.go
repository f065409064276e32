package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DD-DeCaF/metabolic-ninja/cmd"
	"github.com/DD-DeCaF/metabolic-ninja/internal/config"
	"github.com/DD-DeCaF/metabolic-ninja/internal/diskmon"
	"github.com/DD-DeCaF/metabolic-ninja/internal/telemetry"
)

// Watches the volume backing the cache's append-only file and exposes the
// measurements on MONITOR_PORT.
func main() {
	log.Println("Starting disk monitor...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadDiskMonitor()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	telemetry.SetupLogger(cfg.Settings)
	flushSentry, err := telemetry.SetupSentry(cfg.Settings)
	if err != nil {
		log.Fatalf("Failed to initialize error tracking: %v", err)
	}
	defer flushSentry()

	monitor := diskmon.NewMonitor(cfg.DataDir)
	if err := monitor.Start(); err != nil {
		log.Fatalf("Failed to start the disk monitor: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down disk monitor...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("Disk monitor listening on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v", cfg.Port, err)
	}

	monitor.Stop()
	log.Println("Disk monitor stopped.")
}
