package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bookshelf-ua/api/internal/di"
	"github.com/bookshelf-ua/api/internal/handlers"
	"github.com/bookshelf-ua/api/internal/platform/auth"
	"github.com/bookshelf-ua/api/internal/platform/config"
	pfirestore "github.com/bookshelf-ua/api/internal/platform/firestore"
	"github.com/bookshelf-ua/api/internal/platform/i18n"
	"github.com/bookshelf-ua/api/internal/platform/idempotency"
	"github.com/bookshelf-ua/api/internal/platform/jobs"
	"github.com/bookshelf-ua/api/internal/platform/metrics"
	"github.com/bookshelf-ua/api/internal/platform/observability"
	"github.com/bookshelf-ua/api/internal/platform/requestctx"
	"github.com/bookshelf-ua/api/internal/platform/secrets"
	"github.com/bookshelf-ua/api/internal/repositories"
	firestoreRepo "github.com/bookshelf-ua/api/internal/repositories/firestore"
	postgresRepo "github.com/bookshelf-ua/api/internal/repositories/postgres"
	"github.com/bookshelf-ua/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = requestctx.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)))
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)

	var firestoreProvider *pfirestore.Provider
	registry, err := openRegistry(ctx, cfg, logger, &firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registry.Close(closeCtx); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	var (
		events      services.OrderEventPublisher
		eventsTopic *pubsub.Topic
	)
	if cfg.PubSub.Enabled {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID, clientOptions(cfg)...)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		eventsTopic = pubsubClient.Topic(cfg.PubSub.OrderEventsTopic)
		defer eventsTopic.Stop()
		publisher, err := jobs.NewPubSubOrderEventPublisher(eventsTopic)
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
		events = publisher
	}

	var (
		appMetrics   *metrics.Metrics
		orderMetrics services.OrderMetrics
	)
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New(cfg.Metrics.Namespace)
		orderMetrics = appMetrics
	}

	container, err := di.NewContainer(cfg, registry, di.Extras{
		Events:  events,
		Metrics: orderMetrics,
		Clock:   time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}
	svc := container.Services

	systemService, err := newSystemService(cfg, registry, eventsTopic, fetcher, buildInfo)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase, cfg.Storage.Timeout)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier)

	var idempotencyStore idempotency.Store = idempotency.NewMemoryStore()
	if firestoreProvider != nil {
		idempotencyStore = idempotency.NewFirestoreStore(firestoreProvider)
	}
	idempotencyMiddleware := idempotency.Middleware(
		idempotencyStore,
		idempotency.WithHeader(cfg.Idempotency.Header),
		idempotency.WithTTL(cfg.Idempotency.TTL),
	)

	orderHandlers := handlers.NewOrderHandlers(svc.Orders, svc.Status,
		handlers.WithOrderIdempotency(idempotencyMiddleware),
	)
	groupDiscountHandlers := handlers.NewGroupDiscountHandlers(svc.GroupDiscounts)
	basketHandlers := handlers.NewBasketHandlers(svc.Baskets)
	bookHandlers := handlers.NewBookHandlers(svc.Books)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		i18n.Middleware(),
	}
	if appMetrics != nil {
		middlewares = append(middlewares, appMetrics.Middleware())
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(systemService),
	)

	opts := []handlers.Option{
		handlers.WithRequestTimeout(cfg.Storage.Timeout),
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicRoutes(groupDiscountHandlers.PublicRoutes),
		handlers.WithMeRoutes(basketHandlers.Routes, authenticator.RequireFirebaseAuth()),
		handlers.WithOrderRoutes(orderHandlers.Routes, authenticator.RequireFirebaseAuth()),
		handlers.WithAdminRoutes(
			handlers.Registrars(orderHandlers.AdminRoutes, groupDiscountHandlers.AdminRoutes, bookHandlers.AdminRoutes),
			authenticator.RequireFirebaseAuth(auth.RoleStaff, auth.RoleAdmin),
		),
	}
	if appMetrics != nil {
		opts = append(opts, handlers.WithMetricsHandler(appMetrics.Handler()))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr), zap.String("storage", cfg.Storage.Driver))
	go func() {
		serverLogger.Info("bookshelf api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openRegistry connects the configured storage backend. provider is set when Firestore is used so
// the idempotency store can share its client.
func openRegistry(ctx context.Context, cfg config.Config, logger *zap.Logger, provider **pfirestore.Provider) (repositories.Registry, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		pool, err := postgresRepo.Open(connectCtx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		registry, err := postgresRepo.NewRegistry(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return registry, nil
	default:
		p := pfirestore.NewProvider(cfg.Firestore,
			pfirestore.WithDialTimeout(cfg.Storage.Timeout),
			pfirestore.WithClientOptions(clientOptions(cfg)...),
		)
		registry, err := firestoreRepo.NewRegistry(p)
		if err != nil {
			_ = p.Close(ctx)
			return nil, err
		}
		*provider = p
		return registry, nil
	}
}

func clientOptions(cfg config.Config) []option.ClientOption {
	if file := strings.TrimSpace(cfg.Firebase.CredentialsFile); file != "" {
		return []option.ClientOption{option.WithCredentialsFile(file)}
	}
	return nil
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["API_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	return services.BuildInfo{
		Version:     version,
		Environment: cfg.Environment,
		StartedAt:   started,
	}
}

func newSystemService(cfg config.Config, registry repositories.Registry, topic *pubsub.Topic, fetcher *secrets.Fetcher, build services.BuildInfo) (services.SystemService, error) {
	checks := []repositories.DependencyCheck{{
		Name:    cfg.Storage.Driver,
		Timeout: 1500 * time.Millisecond,
		Check:   registry.Ping,
	}}
	if topic != nil {
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				ok, err := topic.Exists(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("topic %s does not exist", topic.ID())
				}
				return nil
			},
		})
	}
	if fetcher != nil && strings.TrimSpace(cfg.Secrets.ProjectID) != "" {
		const secretHealthReference = "secret://system-healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name:    "secretManager",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil {
					return nil
				}
				if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
					return nil
				}
				return err
			},
		})
	}
	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		Health:   repo,
		Required: []string{cfg.Storage.Driver},
		Build:    build,
		Clock:    time.Now,
	})
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		return strings.TrimSpace(env[key])
	}

	project := lookup("API_SECRETS_PROJECT_ID")
	if project == "" {
		project = lookup("API_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("API_SECRETS_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if project != "" {
		opts = append(opts, secrets.WithProject(project))
	}
	if credentialsFile := lookup("API_FIREBASE_CREDENTIALS_FILE"); credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}
	return secrets.NewFetcher(ctx, opts...)
}
