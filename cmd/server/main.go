package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	chathandler "touch/internal/chat/handler"
	chatservice "touch/internal/chat/service"
	chatstore "touch/internal/chat/store/chat"
	messagestore "touch/internal/chat/store/message"
	identityhandler "touch/internal/identity/handler"
	identityservice "touch/internal/identity/service"
	"touch/internal/identity/store/revocation"
	userstore "touch/internal/identity/store/user"
	jwttoken "touch/internal/jwt_token"
	"touch/internal/notification"
	"touch/internal/platform/config"
	"touch/internal/platform/httpserver"
	"touch/internal/platform/logger"
	"touch/internal/platform/metrics"
	"touch/internal/platform/otel"
	"touch/internal/platform/postgres"
	"touch/internal/platform/redis"
	httptransport "touch/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// stores groups the storage backends selected by configuration.
type stores struct {
	users       identityservice.UserStore
	directory   chatservice.UserDirectory
	chats       chatservice.ChatStore
	messages    chatservice.MessageStore
	tx          chatservice.TxRunner
	revocations identityservice.RevocationList
	health      map[string]httptransport.HealthCheck
	close       func()
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	shutdownTracing, err := otel.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close()

	gateway, closeGateway, err := notification.New(ctx, cfg.Notification, log)
	if err != nil {
		return err
	}
	defer closeGateway()

	m := metrics.New(prometheus.DefaultRegisterer)
	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)

	identity, err := identityservice.New(st.users, gateway, jwtService,
		identityservice.WithLogger(log),
		identityservice.WithMetrics(m),
		identityservice.WithRevocationList(st.revocations),
		identityservice.WithCodeTTL(cfg.Auth.CodeTTL),
		identityservice.WithSessionTTL(cfg.Auth.SessionTTL),
	)
	if err != nil {
		return fmt.Errorf("identity service: %w", err)
	}

	chats, err := chatservice.New(st.chats, st.messages, st.directory,
		chatservice.WithLogger(log),
		chatservice.WithMetrics(m),
		chatservice.WithTx(st.tx),
	)
	if err != nil {
		return fmt.Errorf("chat service: %w", err)
	}

	router := httptransport.NewRouter(httptransport.Dependencies{
		Logger:      log,
		Metrics:     m,
		Gatherer:    prometheus.DefaultGatherer,
		Identity:    identityhandler.New(identity, log),
		Chats:       chathandler.New(chats, log),
		Validator:   jwttoken.NewJWTServiceAdapter(jwtService),
		Revocations: identity,
		Health:      st.health,
	})
	srv := httpserver.New(cfg.Addr, cfg.HTTP, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting touch server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStores picks Postgres when DATABASE_URL is set and Redis for the
// revocation list when REDIS_URL is set, falling back to in-memory stores.
func openStores(ctx context.Context, cfg config.Server, log *slog.Logger) (*stores, error) {
	st := &stores{
		health: map[string]httptransport.HealthCheck{},
	}
	var closers []func()
	st.close = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.URL != "" {
		db, err := postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { _ = db.Close() })
		if cfg.Database.ApplySchema {
			if err := postgres.ApplySchema(ctx, db); err != nil {
				st.close()
				return nil, err
			}
		}
		usePostgres(st, db)
		log.Info("storage: postgres")
	} else {
		users := userstore.New()
		st.users, st.directory = users, users
		st.chats = chatstore.New()
		st.messages = messagestore.New()
		st.tx = &chatservice.MemoryTx{}
		log.Warn("storage: in-memory; data is lost on restart")
	}

	if cfg.Redis.URL != "" {
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			st.close()
			return nil, err
		}
		closers = append(closers, func() { _ = client.Close() })
		st.revocations = revocation.NewRedisTRL(client.Client)
		st.health["redis"] = client.Health
		log.Info("token revocation: redis")
	} else {
		st.revocations = revocation.NewInMemoryTRL()
	}
	return st, nil
}

func usePostgres(st *stores, db *sql.DB) {
	users := userstore.NewPostgres(db)
	st.users, st.directory = users, users
	st.chats = chatstore.NewPostgres(db)
	st.messages = messagestore.NewPostgres(db)
	st.tx = newChatPostgresTx(db)
	st.health["postgres"] = db.PingContext
}
