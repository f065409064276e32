package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Deployment environments accepted in ENVIRONMENT.
const (
	Production  = "production"
	Staging     = "staging"
	Testing     = "testing"
	Development = "development"
)

// Settings holds the knobs shared by every binary.
type Settings struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	SecretKey   string `env:"SECRET_KEY"`
	SentryDSN   string `env:"SENTRY_DSN"`
}

// Deployed reports whether the process runs in a shared environment, as
// opposed to a developer machine or a test run.
func (s Settings) Deployed() bool {
	return s.Environment == Production || s.Environment == Staging
}

func (s Settings) Validate() error {
	switch s.Environment {
	case Production, Staging, Testing, Development:
	default:
		return fmt.Errorf("unknown ENVIRONMENT %q", s.Environment)
	}
	if s.Deployed() && s.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required in %s", s.Environment)
	}
	return nil
}

type Postgres struct {
	Host     string `env:"POSTGRES_HOST,notEmpty,required"`
	Port     int    `env:"POSTGRES_PORT" envDefault:"5432"`
	Username string `env:"POSTGRES_USERNAME,notEmpty,required"`
	Password string `env:"POSTGRES_PASS,notEmpty,required"`
	Database string `env:"POSTGRES_DB_NAME,notEmpty,required"`
}

func (p Postgres) URL() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%d/%s?sslmode=disable",
		p.Username, p.Password, p.Host, p.Port, p.Database)
}

type RabbitMQ struct {
	Host string `env:"RABBITMQ_HOST" envDefault:"localhost"`
}

func (r RabbitMQ) URL() string {
	return fmt.Sprintf("amqp://guest:guest@%s:5672/", r.Host)
}

// API configures the web server.
type API struct {
	Settings
	Postgres
	RabbitMQ
	Port              string   `env:"API_PORT" envDefault:"8000"`
	AllowedOrigins    []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	ModelStorageAPI   string   `env:"MODEL_STORAGE_API,notEmpty,required"`
	WarehouseAPI      string   `env:"WAREHOUSE_API,notEmpty,required"`
	IAMAPI            string   `env:"IAM_API,notEmpty,required"`
	RedisHost         string   `env:"REDIS_HOST" envDefault:"localhost"`
	UniversalModelDir string   `env:"UNIVERSAL_MODEL_DIR" envDefault:"data/universal"`
}

// Worker configures the job consumer.
type Worker struct {
	Settings
	Postgres
	RabbitMQ
	Concurrency       int           `env:"WORKER_CONCURRENCY" envDefault:"2"`
	JobTimeout        time.Duration `env:"JOB_TIMEOUT" envDefault:"2h"`
	EnginePluginPath  string        `env:"ENGINE_PLUGIN_PATH,notEmpty,required"`
	UniversalModelDir string        `env:"UNIVERSAL_MODEL_DIR" envDefault:"data/universal"`
	SendgridAPIKey    string        `env:"SENDGRID_API_KEY"`
	FrontendURL       string        `env:"FRONTEND_URL" envDefault:"https://caffeine.dd-decaf.eu"`
}

// Migrate configures the migration command run by the init container.
type Migrate struct {
	Settings
	Postgres
}

// DiskMonitor configures the volume watcher that runs beside the cache.
type DiskMonitor struct {
	Settings
	DataDir string `env:"DATA_DIR" envDefault:"/data"`
	Port    string `env:"MONITOR_PORT" envDefault:"8080"`
}

func LoadAPI() (API, error) {
	cfg, err := env.ParseAs[API]()
	if err != nil {
		return API{}, fmt.Errorf("parsing api config: %w", err)
	}
	return cfg, cfg.Validate()
}

func LoadWorker() (Worker, error) {
	cfg, err := env.ParseAs[Worker]()
	if err != nil {
		return Worker{}, fmt.Errorf("parsing worker config: %w", err)
	}
	if cfg.Concurrency < 1 {
		return Worker{}, fmt.Errorf("WORKER_CONCURRENCY must be at least 1, got %d", cfg.Concurrency)
	}
	return cfg, cfg.Validate()
}

func LoadMigrate() (Migrate, error) {
	cfg, err := env.ParseAs[Migrate]()
	if err != nil {
		return Migrate{}, fmt.Errorf("parsing migrate config: %w", err)
	}
	return cfg, cfg.Validate()
}

func LoadDiskMonitor() (DiskMonitor, error) {
	cfg, err := env.ParseAs[DiskMonitor]()
	if err != nil {
		return DiskMonitor{}, fmt.Errorf("parsing disk monitor config: %w", err)
	}
	return cfg, cfg.Validate()
}
