// @title                       Order Desk API
// @version                     1.0
// @description                 Order management for a digital design agency: catalog, orders, payments, assignment, delivery and chat.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Session token as "Bearer <token>".
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/nextlevel/order-desk/internal/api"
	"github.com/nextlevel/order-desk/internal/api/handler"
	"github.com/nextlevel/order-desk/internal/auth"
	"github.com/nextlevel/order-desk/internal/core/domain"
	"github.com/nextlevel/order-desk/internal/core/ports"
	"github.com/nextlevel/order-desk/internal/core/service"
	mongodb "github.com/nextlevel/order-desk/internal/infrastructure/db/mongo"
	redisdb "github.com/nextlevel/order-desk/internal/infrastructure/db/redis"
	"github.com/nextlevel/order-desk/internal/infrastructure/messaging/rabbitmq"
	"github.com/nextlevel/order-desk/internal/infrastructure/queue"
	"github.com/nextlevel/order-desk/internal/pkg/config"
	"github.com/nextlevel/order-desk/pkg/logger"
)

const (
	serviceName     = "order-desk"
	shutdownTimeout = 10 * time.Second
	amqpRetries     = 5
	amqpRetryDelay  = 2 * time.Second
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet.
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("loading config")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})
	if cfg.IsDevelopment() && os.Getenv("SESSION_SECRET") == "" {
		log.Warn().Msg("SESSION_SECRET not set, using the development secret")
	}

	// --- Stores ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  serviceName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to mongodb")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("disconnecting mongodb")
		}
	}()
	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("creating mongodb indexes")
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("mongodb connected")

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to redis")
	}
	defer rdb.Close()
	log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")

	tx, err := mongodb.NewTransactor(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("probing mongodb deployment")
	}
	if !tx.Supported() {
		log.Warn().Msg("mongodb is standalone, order writes and audit entries are not transactional")
	}

	seq := mongodb.NewSequence(db)
	users := mongodb.NewUserRepository(db, seq)
	orders := mongodb.NewOrderRepository(db, seq)
	messages := mongodb.NewMessageRepository(db, seq)
	audit := mongodb.NewAuditRepository(db, seq)
	stats := mongodb.NewStatsRepository(db)
	sessions := redisdb.NewSessionStore(rdb)
	idempotency := redisdb.NewIdempotencyStore(rdb, cfg.Session.IdempotencyTTL)

	// --- Lifecycle events ---
	sink, closeSink := eventSink(cfg, log)
	defer closeSink()
	dispatcher := queue.NewDispatcher(cfg.Events.Workers, sink, logger.Component("dispatcher"))
	dispatcher.Start(ctx)

	// --- Services ---
	tokens := auth.NewTokenManager(cfg.Session.Secret, cfg.Session.Issuer, cfg.Session.TTL)
	authService := service.NewAuthService(users, audit, sessions, tokens, log)
	catalog := domain.DefaultCatalog()
	orderService := service.NewOrderService(orders, users, audit, log,
		service.WithCatalog(catalog),
		service.WithIdempotency(idempotency),
		service.WithTransactor(tx),
		service.WithEvents(dispatcher),
		service.WithLifecyclePolicy(cfg.LifecyclePolicy()),
	)
	messageService := service.NewMessageService(messages, orders, users, log)
	adminService := service.NewAdminService(stats, audit, users, log)
	workspaceService := service.NewWorkspaceService(users, audit, log)

	seeds, err := cfg.StaffSeeds()
	if err != nil {
		log.Fatal().Err(err).Msg("parsing SEED_USERS")
	}
	if err := authService.SeedStaff(ctx, seeds); err != nil {
		log.Fatal().Err(err).Msg("seeding staff accounts")
	}

	router := api.NewRouter(api.Deps{
		Auth:      authService,
		Orders:    orderService,
		Messages:  messageService,
		Admin:     adminService,
		Workspace: workspaceService,
		Catalog:   catalog,
		Checks: map[string]handler.CheckFunc{
			"mongodb": mongodb.Ping(db),
			"redis":   redisdb.Ping(rdb),
		},
		Logger:        log,
		CORSOrigins:   cfg.CORSOrigins,
		AuthRateLimit: cfg.AuthRateLimit,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-quit
	log.Info().Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	// Requests are drained; flush the events they produced.
	dispatcher.Close()

	log.Info().Msg("server stopped gracefully")
}

// eventSink picks RabbitMQ when AMQP_URL is set and the log otherwise.
func eventSink(cfg *config.Config, log zerolog.Logger) (ports.EventSink, func()) {
	if cfg.AMQP.URL == "" {
		log.Info().Msg("AMQP_URL not set, lifecycle events go to the log")
		return queue.LogSink{Log: logger.Component("events")}, func() {}
	}

	conn, err := rabbitmq.Connect(cfg.AMQP.URL, amqpRetries, amqpRetryDelay)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to rabbitmq")
	}
	pub, err := rabbitmq.NewPublisher(conn, cfg.AMQP.Exchange)
	if err != nil {
		_ = conn.Close()
		log.Fatal().Err(err).Msg("declaring rabbitmq exchange")
	}
	log.Info().Str("exchange", cfg.AMQP.Exchange).Msg("rabbitmq connected")

	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Error().Err(err).Msg("closing rabbitmq channel")
		}
		if err := conn.Close(); err != nil {
			log.Error().Err(err).Msg("closing rabbitmq connection")
		}
	}
}
