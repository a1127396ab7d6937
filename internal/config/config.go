// Package config defines the service configuration surface shared by the
// worker and API binaries. Values load from a YAML file layered over the
// defaults; secrets like the database password usually arrive via
// environment variables in deployment and override the file in main.
package config

import (
	"fmt"
	"time"
)

// Database holds the Postgres connection settings.
type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MinConns int32  `yaml:"min_conns"`
	MaxConns int32  `yaml:"max_conns"`
}

// DSN assembles the pgx connection string.
func (d Database) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

// Queue holds the work queue settings.
type Queue struct {
	URL                      string        `yaml:"url"`
	WaitTimeSeconds          int32         `yaml:"wait_time_seconds"`
	VisibilityTimeoutSeconds int32         `yaml:"visibility_timeout_seconds"`
	MaxMessages              int32         `yaml:"max_messages"`
	PollBackoff              time.Duration `yaml:"poll_backoff"`
	ReceiveRPS               float64       `yaml:"receive_rps"`
}

// ObjectStore holds the S3 client settings. Endpoint is only set when
// pointing at an S3-compatible service like LocalStack or MinIO.
type ObjectStore struct {
	Region         string `yaml:"region"`
	Endpoint       string `yaml:"endpoint"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

// Scanner bounds how much object content a worker will read.
type Scanner struct {
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes"`
	ChunkSizeBytes   int64 `yaml:"chunk_size_bytes"`
}

// API holds the HTTP server settings.
type API struct {
	Host               string        `yaml:"host"`
	Port               string        `yaml:"port"`
	DebugHost          string        `yaml:"debug_host"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port the API server binds.
func (a API) Addr() string { return a.Host + ":" + a.Port }

// Telemetry holds the OTLP exporter settings.
type Telemetry struct {
	ServiceName      string  `yaml:"service_name"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
	Insecure         bool    `yaml:"insecure"`
}

// Config is the top-level configuration for both binaries.
type Config struct {
	Database    Database    `yaml:"database"`
	Queue       Queue       `yaml:"queue"`
	ObjectStore ObjectStore `yaml:"object_store"`
	Scanner     Scanner     `yaml:"scanner"`
	API         API         `yaml:"api"`
	Telemetry   Telemetry   `yaml:"telemetry"`
}

// Default returns the configuration used when no file value overrides it.
func Default() Config {
	return Config{
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "datasentry",
			SSLMode:  "disable",
			MinConns: 5,
			MaxConns: 25,
		},
		Queue: Queue{
			WaitTimeSeconds:          20,
			VisibilityTimeoutSeconds: 300,
			MaxMessages:              1,
			PollBackoff:              5 * time.Second,
		},
		ObjectStore: ObjectStore{Region: "us-east-1"},
		Scanner: Scanner{
			MaxFileSizeBytes: 500 * 1024 * 1024,
			ChunkSizeBytes:   10 * 1024 * 1024,
		},
		API: API{
			Host:            "0.0.0.0",
			Port:            "6000",
			DebugHost:       "0.0.0.0:6010",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 20 * time.Second,
		},
		Telemetry: Telemetry{
			ServiceName:   "datasentry",
			SamplingRatio: 0.05,
			Insecure:      true,
		},
	}
}
