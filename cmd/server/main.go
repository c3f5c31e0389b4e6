package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/anonto42/memoshare/internal/app"
	"github.com/anonto42/memoshare/internal/blob"
	"github.com/anonto42/memoshare/internal/events"
	"github.com/anonto42/memoshare/internal/identity"
	"github.com/anonto42/memoshare/internal/live"
	"github.com/anonto42/memoshare/internal/metrics"
	"github.com/anonto42/memoshare/internal/repositories"
	"github.com/anonto42/memoshare/internal/router"
	"github.com/anonto42/memoshare/internal/store"
	"github.com/anonto42/memoshare/internal/store/firestorestore"
	"github.com/anonto42/memoshare/internal/store/memstore"
	"github.com/anonto42/memoshare/internal/store/mongostore"
	"github.com/anonto42/memoshare/internal/store/pgstore"
	"github.com/anonto42/memoshare/pkg/config"
	"github.com/anonto42/memoshare/pkg/firebase"
	"github.com/anonto42/memoshare/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewCollector("memoshare")

	// cleanup runs in reverse order of registration on exit
	var cleanup []func()
	defer func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}()

	var (
		fb  *firebase.App
		err error
	)
	needFirebase := cfg.StoreBackend == "firestore" || cfg.BlobBackend == "firebase" || cfg.AuthMode == "firebase"
	if needFirebase {
		fb, err = firebase.InitFirebase(ctx, firebase.Options{
			CredentialsPath: cfg.FirebaseCredentialsPath,
			StorageBucket:   cfg.FirebaseStorageBucket,
			WithFirestore:   cfg.StoreBackend == "firestore",
			WithStorage:     cfg.BlobBackend == "firebase",
		}, log.Named("firebase"))
		if err != nil {
			return fmt.Errorf("initialize firebase: %w", err)
		}
		cleanup = append(cleanup, func() { _ = fb.Close() })
	}

	repo, closeStore, err := openStore(ctx, cfg, fb, log)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, closeStore)
	if cfg.BreakerEnabled {
		repo = store.WithCircuitBreaker(repo, store.DefaultBreakerConfig(cfg.StoreBackend), log.Named("breaker"))
	}

	blobs, err := openBlobs(ctx, cfg, fb)
	if err != nil {
		return err
	}

	var broker live.Broker
	if cfg.RedisAddr != "" {
		broker = live.NewRedisBroker(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), log.Named("live"))
		log.Info("live updates over redis", zap.String("addr", cfg.RedisAddr))
	} else {
		broker = live.NewHub(log.Named("live"))
	}
	cleanup = append(cleanup, func() { _ = broker.Close() })

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic != "" {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		cleanup = append(cleanup, func() { _ = kp.Close() })
		publisher = kp
		log.Info("events published to kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		publisher = events.NewLogPublisher(log.Named("events"))
	}

	verifier, err := newVerifier(cfg, fb)
	if err != nil {
		return err
	}

	services := app.NewServices(app.Deps{
		Store:            repo,
		Blobs:            blobs,
		Broker:           broker,
		Publisher:        publisher,
		Logger:           log,
		Metrics:          m,
		LedgerMaxRetries: cfg.LedgerMaxRetries,
		FeedPageSize:     cfg.FeedPageSize,
		SearchWindow:     cfg.SearchWindow,
		SearchThreshold:  cfg.SearchThreshold,
	})

	// Create Echo instance
	e := echo.New()
	router.SetupMiddleware(e, log, m)
	router.SetupRoutes(e, services, verifier, log, m)

	if cfg.MetricsPort != "" {
		metricsSrv := &http.Server{Addr: ":" + cfg.MetricsPort, Handler: m.Handler()}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		cleanup = append(cleanup, func() { _ = metricsSrv.Close() })
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("port", cfg.Port), zap.String("store", cfg.StoreBackend))
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg *config.Config, fb *firebase.App, log *zap.Logger) (store.Repository, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		return memstore.New(), func() {}, nil
	case "mongo":
		client, err := config.InitMongo(cfg.MongoURI, log)
		if err != nil {
			return nil, nil, err
		}
		s := mongostore.New(client.Database(cfg.MongoDatabase))
		if err := s.EnsureIndexes(ctx, repositories.Indexes); err != nil {
			config.CloseMongo(client, log)
			return nil, nil, err
		}
		return s, func() { config.CloseMongo(client, log) }, nil
	case "postgres":
		db, err := config.InitPostgres(cfg.PostgresConn, log)
		if err != nil {
			return nil, nil, err
		}
		s := pgstore.New(db)
		if err := s.Migrate(ctx); err != nil {
			config.ClosePostgres(db, log)
			return nil, nil, fmt.Errorf("migrate documents table: %w", err)
		}
		return s, func() { config.ClosePostgres(db, log) }, nil
	case "firestore":
		// the client is closed with the firebase app
		return firestorestore.New(fb.Firestore), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

func openBlobs(ctx context.Context, cfg *config.Config, fb *firebase.App) (blob.Store, error) {
	switch cfg.BlobBackend {
	case "none", "":
		return nil, nil
	case "firebase":
		return blob.NewFirebaseStore(fb.Bucket, fb.BucketName), nil
	case "minio":
		s, err := blob.NewMinioStore(blob.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.MinioBucket,
		})
		if err != nil {
			return nil, fmt.Errorf("initialize minio: %w", err)
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("ensure minio bucket: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
}

func newVerifier(cfg *config.Config, fb *firebase.App) (identity.Verifier, error) {
	switch cfg.AuthMode {
	case "firebase":
		return identity.NewFirebaseVerifier(fb.AuthClient), nil
	case "jwt":
		if cfg.JWTSecret == "" {
			return nil, errors.New("JWT_SECRET is required when AUTH_MODE=jwt")
		}
		return identity.NewJWTVerifier(cfg.JWTSecret), nil
	}
	return nil, fmt.Errorf("unknown AUTH_MODE %q", cfg.AuthMode)
}
