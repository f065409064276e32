package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/DD-DeCaF/metabolic-ninja/cmd"
	"github.com/DD-DeCaF/metabolic-ninja/internal/api"
	"github.com/DD-DeCaF/metabolic-ninja/internal/auth"
	"github.com/DD-DeCaF/metabolic-ninja/internal/clients/modelstorage"
	"github.com/DD-DeCaF/metabolic-ninja/internal/clients/warehouse"
	"github.com/DD-DeCaF/metabolic-ninja/internal/config"
	"github.com/DD-DeCaF/metabolic-ninja/internal/database"
	"github.com/DD-DeCaF/metabolic-ninja/internal/messaging"
	"github.com/DD-DeCaF/metabolic-ninja/internal/products"
	"github.com/DD-DeCaF/metabolic-ninja/internal/telemetry"
	"github.com/DD-DeCaF/metabolic-ninja/internal/universal"
)

func main() {
	log.Println("Starting API server...")

	cmd.LoadEnvFile()

	cfg, err := config.LoadAPI()
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

	publisher, err := messaging.NewRabbitMQPublisher(cfg.RabbitMQ.URL())
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	keyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	publicKey, err := auth.FetchPublicKey(keyCtx, cfg.IAMAPI)
	cancel()
	if err != nil {
		log.Fatalf("Failed to fetch the IAM public key: %v", err)
	}

	cache := products.NewRedisCache(redis.NewClient(&redis.Options{Addr: cfg.RedisHost + ":6379"}))
	productService := products.NewService(cache, universal.NewRepository(cfg.UniversalModelDir))
	if cfg.Environment != config.Development {
		// Parse the universal databases before the first request needs them.
		go func() {
			if err := productService.Warm(context.Background()); err != nil {
				slog.Warn("unable to warm the product cache", "error", err)
			}
		}()
	}

	service := api.NewBackendService(
		db,
		publisher,
		modelstorage.NewClient(cfg.ModelStorageAPI),
		warehouse.NewClient(cfg.WarehouseAPI),
		productService,
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	r.Use(auth.Middleware(publicKey))

	service.AddRoutes(r)
	r.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Fatalf("Server forced to shutdown: %v", err)
		}
	}()

	log.Printf("API server listening on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not listen on %s: %v", cfg.Port, err)
	}

	log.Println("Server stopped.")
}
