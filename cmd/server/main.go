package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aryan0dhankhar/hobbyapi/internal/domain"
	"github.com/aryan0dhankhar/hobbyapi/internal/handler"
	"github.com/aryan0dhankhar/hobbyapi/internal/infrastructure/logger"
	"github.com/aryan0dhankhar/hobbyapi/internal/infrastructure/mongo"
	"github.com/aryan0dhankhar/hobbyapi/internal/infrastructure/redis"
	"github.com/aryan0dhankhar/hobbyapi/internal/observability/metrics"
	"github.com/aryan0dhankhar/hobbyapi/internal/observability/tracing"
	"github.com/aryan0dhankhar/hobbyapi/internal/repository"
	"github.com/aryan0dhankhar/hobbyapi/internal/security/audit"
	"github.com/aryan0dhankhar/hobbyapi/internal/security/auth"
	"github.com/aryan0dhankhar/hobbyapi/internal/security/middleware"
	"github.com/aryan0dhankhar/hobbyapi/internal/security/ratelimit"
	"github.com/aryan0dhankhar/hobbyapi/internal/service"
	"github.com/aryan0dhankhar/hobbyapi/internal/worker"
	"github.com/aryan0dhankhar/hobbyapi/pkg/config"
	"github.com/aryan0dhankhar/hobbyapi/pkg/database"
)

// store is the opened backend behind both repositories.
type store struct {
	users   domain.UserRepository
	hobbies domain.HobbyRepository
	pinger  handler.Pinger
	close   func() error
}

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize structured logger and tracing
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting hobbyapi server",
		slog.String("environment", cfg.Environment),
		slog.String("store", cfg.StoreDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "hobbyapi", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 3. Open the configured store
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open store",
			slog.String("driver", cfg.StoreDriver),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}
	defer st.close()

	// 4. Initialize services
	fixups := service.NewFixupRunner(cfg.FixupTimeout, cfg.FixupMaxAttempts, log)
	userService := service.NewUserService(st.users, st.hobbies, fixups, log)
	hobbyService := service.NewHobbyService(st.hobbies, st.users, fixups, time.Now, log)

	// 5. Initialize handlers and routes
	mux := http.NewServeMux()
	handler.Register(mux,
		handler.NewUserHandler(userService, log),
		handler.NewHobbyHandler(hobbyService, log),
		handler.NewHealthHandler(cfg.StoreDriver, st.pinger, log),
	)

	// 6. Initialize security components
	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer rateLimiter.Stop()
	auditLogger := audit.NewLogger(log)

	// Chain middleware: request ID -> headers -> CORS -> input checks -> JWT -> rate limit -> audit -> metrics
	mws := []func(http.Handler) http.Handler{
		middleware.WithRequestID(log),
		middleware.SecurityHeaders,
		middleware.CORS(cfg.CORSAllowedOrigins),
		middleware.SanitizeInputs(log),
		middleware.ValidateJSONContentType(log),
	}
	authMode := "disabled"
	if cfg.JWTSecret != "" {
		tokenManager, err := auth.NewTokenManager(cfg.JWTSecret, auth.DefaultIssuer)
		if err != nil {
			log.Error("failed to initialize token manager", slog.String("error", err.Error()))
			os.Exit(1)
		}
		mws = append(mws, middleware.JWTMiddleware(tokenManager, log))
		authMode = "jwt"
	}
	mws = append(mws,
		middleware.RateLimitMiddleware(rateLimiter, log),
		middleware.AuditMiddleware(auditLogger),
		// Innermost so it sees the request the mux stamps with its pattern.
		metrics.HTTPMetricsMiddleware,
	)

	rootHandler := tracing.WrapHandler(
		http.TimeoutHandler(middleware.Chain(mux, mws...), cfg.RequestTimeout, `{"message":"Error: request timed out"}`),
		"hobbyapi",
	)

	// 7. Start reconciler in background
	if cfg.ReconcileInterval > 0 {
		reconciler := worker.NewReconciler(st.users, st.hobbies, log, cfg.ReconcileInterval)
		go reconciler.Start(ctx)
	}

	// 8. Start HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      rootHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.String("auth", authMode),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.Duration("reconcile_interval", cfg.ReconcileInterval),
	)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
			sigChan <- syscall.SIGTERM
		}
	}()

	// Wait for shutdown signal
	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel() // Stop reconciler
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.DriverMongo:
		client, err := mongo.NewClient(ctx, cfg.MongoURL, cfg.MongoDatabase, log)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureIndexes(ctx); err != nil {
			client.Close(context.Background())
			return nil, err
		}
		return &store{
			users:   repository.NewMongoUserRepository(client.Collection(mongo.UsersCollection), log),
			hobbies: repository.NewMongoHobbyRepository(client.Collection(mongo.HobbiesCollection), log),
			pinger:  client,
			close:   func() error { return client.Close(context.Background()) },
		}, nil

	case config.DriverPostgres:
		pool, err := database.NewConnectionPool(ctx, &database.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.Database,
			SSLMode:  cfg.Postgres.SSLMode,
		}, log)
		if err != nil {
			return nil, err
		}
		if err := pool.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &store{
			users:   repository.NewPostgresUserRepository(pool.GetDB(), log),
			hobbies: repository.NewPostgresHobbyRepository(pool.GetDB(), log),
			pinger:  pool,
			close:   pool.Close,
		}, nil

	case config.DriverRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		return &store{
			users:   repository.NewRedisUserRepository(client, log),
			hobbies: repository.NewRedisHobbyRepository(client, log),
			pinger:  client,
			close:   client.Close,
		}, nil

	case config.DriverMemory:
		mem := repository.NewMemoryStore()
		return &store{
			users:   mem.Users(),
			hobbies: mem.Hobbies(),
			pinger:  mem,
			close:   func() error { return nil },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
