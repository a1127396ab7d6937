package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/ahrav/datasentry/internal/api"
	"github.com/ahrav/datasentry/internal/api/debug"
	appscanning "github.com/ahrav/datasentry/internal/app/scanning"
	"github.com/ahrav/datasentry/internal/config"
	s3store "github.com/ahrav/datasentry/internal/infra/objstore/s3"
	sqsqueue "github.com/ahrav/datasentry/internal/infra/queue/sqs"
	"github.com/ahrav/datasentry/internal/infra/storage"
	scanningStore "github.com/ahrav/datasentry/internal/infra/storage/scanning/postgres"
	"github.com/ahrav/datasentry/pkg/common/logger"
	"github.com/ahrav/datasentry/pkg/common/otel"
)

const serviceType = "scan-api"

func main() {
	// Set the correct number of threads for the service.
	_, _ = maxprocs.Set()

	hostname, err := os.Hostname()
	if err != nil {
		log.Fatalf("failed to get hostname: %v", err)
	}

	var log *logger.Logger

	logEvents := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			errorAttrs := map[string]any{
				"error_message": r.Message,
				"error_time":    r.Time.UTC().Format(time.RFC3339),
				"trace_id":      otel.GetTraceID(ctx),
			}
			for k, v := range r.Attributes {
				errorAttrs[k] = v
			}

			errorAttrsJSON, err := json.Marshal(errorAttrs)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to marshal error attributes: %v\n", err)
				return
			}

			fmt.Fprintf(os.Stderr, "Error event: %s, details: %s\n",
				r.Message, errorAttrsJSON)
		},
	}

	traceIDFn := func(ctx context.Context) string {
		return otel.GetTraceID(ctx)
	}

	svcName := fmt.Sprintf("SCAN-API-%s", hostname)
	metadata := map[string]string{
		"service":   svcName,
		"hostname":  hostname,
		"pod":       os.Getenv("POD_NAME"),
		"namespace": os.Getenv("POD_NAMESPACE"),
		"app":       serviceType,
	}

	log = logger.NewWithMetadata(os.Stdout, logger.LevelDebug, svcName, traceIDFn, logEvents, metadata)

	ctx := context.Background()

	if err := run(ctx, log, hostname); err != nil {
		log.Error(ctx, "startup", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, hostname string) error {
	log.Info(ctx, "startup", "GOMAXPROCS", runtime.GOMAXPROCS(0))

	// -------------------------------------------------------------------------
	// Configuration

	cfg := config.Default()
	if path := os.Getenv("DATASENTRY_CONFIG"); path != "" {
		loaded, err := config.NewFileLoader(path).Load(ctx)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = *loaded
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = cfg.Database.DSN()
	}
	if url := os.Getenv("QUEUE_URL"); url != "" {
		cfg.Queue.URL = url
	}
	if cfg.Queue.URL == "" {
		return errors.New("queue url is required")
	}

	// -------------------------------------------------------------------------
	// Start Tracing Support

	log.Info(ctx, "startup", "status", "initializing tracing support")

	traceProvider, teardown, err := otel.InitTelemetry(log, otel.Config{
		ServiceName:      cfg.Telemetry.ServiceName,
		ExporterEndpoint: cfg.Telemetry.ExporterEndpoint,
		ExcludedRoutes: map[string]struct{}{
			"/v1/health": {},
			"/debug":     {},
		},
		Probability: cfg.Telemetry.SamplingRatio,
		ResourceAttributes: map[string]string{
			"library.language": "go",
			"k8s.pod.name":     os.Getenv("POD_NAME"),
			"k8s.namespace":    os.Getenv("POD_NAMESPACE"),
			"k8s.container.id": hostname,
		},
		InsecureExporter: cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer teardown(ctx)

	tracer := traceProvider.Tracer(serviceType)

	// -------------------------------------------------------------------------
	// Database Support

	log.Info(ctx, "startup", "status", "connecting to database")

	pool, err := storage.ConnectWithRetry(ctx, storage.PoolConfig{
		DSN:      dsn,
		MinConns: cfg.Database.MinConns,
		MaxConns: cfg.Database.MaxConns,
	}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	// -------------------------------------------------------------------------
	// AWS Clients

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.ObjectStore.Region))
	if err != nil {
		return fmt.Errorf("loading aws config: %w", err)
	}

	s3Client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.ObjectStore.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.ObjectStore.Endpoint)
		}
		o.UsePathStyle = cfg.ObjectStore.ForcePathStyle
	})
	sqsClient := awssqs.NewFromConfig(awsCfg)

	// -------------------------------------------------------------------------
	// Start Debug Service

	go func() {
		log.Info(ctx, "startup", "status", "debug router started", "host", cfg.API.DebugHost)

		if err := http.ListenAndServe(cfg.API.DebugHost, debug.Mux()); err != nil {
			log.Error(ctx, "shutdown", "status", "debug router closed", "host", cfg.API.DebugHost, "msg", err)
		}
	}()

	// -------------------------------------------------------------------------
	// Start API Service

	log.Info(ctx, "startup", "status", "initializing API support")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	jobStore := scanningStore.NewJobStore(pool, tracer)
	unitStore := scanningStore.NewUnitStore(pool, tracer)
	findingStore := scanningStore.NewFindingStore(pool, tracer)

	queueCfg := sqsqueue.Config{
		QueueURL:          cfg.Queue.URL,
		WaitTimeSeconds:   cfg.Queue.WaitTimeSeconds,
		VisibilityTimeout: cfg.Queue.VisibilityTimeoutSeconds,
		MaxMessages:       cfg.Queue.MaxMessages,
	}
	queue := sqsqueue.NewQueue(sqsClient, queueCfg, log)

	coordinator := appscanning.NewCoordinator(
		jobStore, unitStore, s3store.NewStore(s3Client), queue, log, tracer)

	webAPI := api.NewRouter(coordinator, findingStore, log, cfg.API.CORSAllowedOrigins)

	server := http.Server{
		Addr:         cfg.API.Addr(),
		Handler:      webAPI,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  cfg.API.IdleTimeout,
		ErrorLog:     logger.NewStdLogger(log, logger.LevelError),
	}

	serverErrors := make(chan error, 1)

	go func() {
		log.Info(ctx, "startup", "status", "api router started", "host", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// -------------------------------------------------------------------------
	// Shutdown

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Info(ctx, "shutdown", "status", "shutdown started", "signal", sig)
		defer log.Info(ctx, "shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(ctx, cfg.API.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
