package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gartstein/professionals/internal/professional/config"
	"github.com/gartstein/professionals/internal/professional/controller"
	"github.com/gartstein/professionals/internal/professional/db"
	"github.com/gartstein/professionals/internal/professional/events"
	"github.com/gartstein/professionals/internal/professional/extract"
	"github.com/gartstein/professionals/internal/professional/handlers"
	"github.com/gartstein/professionals/internal/professional/models"
	"github.com/gartstein/professionals/internal/professional/storage"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// producer is an event sink that may hold resources to release.
type producer interface {
	controller.EventProducer
	Close()
}

type discardProducer struct {
	events.Discard
}

func (discardProducer) Close() {}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	repo, err := connectDatabase(initDatabase(cfg), logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, media, err := initStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize resume storage", zap.Error(err))
	}

	eventProducer, err := initProducer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize event producer", zap.Error(err))
	}
	defer eventProducer.Close()

	professionalSvc := controller.NewProfessionalService(repo, store, extract.New(), eventProducer, logger)

	if cfg.EventsBackend == config.BackendKafka && cfg.IngestTopic != "" {
		consumer := events.NewConsumer(cfg.KafkaBrokers, cfg.IngestGroup, cfg.IngestTopic, logger)
		consumer.RegisterHandler(func(ctx context.Context, record models.ProfessionalInput) error {
			_, _, err := professionalSvc.Upsert(ctx, record)
			return err
		})
		consumer.Start(ctx)
		defer func() {
			cancel()
			<-consumer.Done()
			consumer.Close()
		}()
	}

	professionalHandler := handlers.NewProfessionalHandler(professionalSvc, cfg.MaxUploadBytes, logger)

	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger)
	if err := server.RegisterHTTPGateway(
		ctx,
		professionalHandler,
		[]grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
		cfg.JWTSecret,
		media,
	); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start servers", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// initDatabase initializes the database connection settings.
func initDatabase(cfg *config.Config) *db.Config {
	return &db.Config{
		Driver:   cfg.DBDriver,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
		Path:     cfg.DBPath,
	}
}

// connectDatabase retries the initial connection while the database starts.
func connectDatabase(dbConf *db.Config, logger *zap.Logger) (*db.Repository, error) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 30 * time.Second

	return backoff.RetryNotifyWithData(func() (*db.Repository, error) {
		return db.NewRepository(dbConf)
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Database not ready, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
}

// initStorage selects the resume object store. The returned handler serves
// local media and is nil for S3.
func initStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (controller.ObjectStore, http.Handler, error) {
	if cfg.StorageBackend == config.StorageS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Config{
			Endpoint:  cfg.S3Endpoint,
			PublicURL: cfg.S3PublicURL,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, logger)
		return store, nil, err
	}

	store, err := storage.NewLocalStore(cfg.MediaRoot, cfg.PublicBaseURL, logger)
	if err != nil {
		return nil, nil, err
	}
	media := http.StripPrefix(storage.MediaPrefix, http.FileServer(http.Dir(store.Root())))
	return store, media, nil
}

func initProducer(cfg *config.Config, logger *zap.Logger) (producer, error) {
	switch cfg.EventsBackend {
	case config.BackendKafka:
		return events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	case config.BackendAMQP:
		return events.NewAMQPProducer(cfg.AMQPURL, cfg.AMQPExchange, logger)
	default:
		return discardProducer{}, nil
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down servers.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Servers stopped properly")
}
