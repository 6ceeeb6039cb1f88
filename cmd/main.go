package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"github.com/inkroom/inkroom/internal/domain"
	"github.com/inkroom/inkroom/internal/gateway"
	"github.com/inkroom/inkroom/internal/history"
	"github.com/inkroom/inkroom/internal/infrastructure/configs"
	"github.com/inkroom/inkroom/internal/infrastructure/events"
	"github.com/inkroom/inkroom/internal/infrastructure/logging"
	"github.com/inkroom/inkroom/internal/infrastructure/messaging"
	"github.com/inkroom/inkroom/internal/infrastructure/metrics"
	"github.com/inkroom/inkroom/internal/infrastructure/ratelimiter"
	"github.com/inkroom/inkroom/internal/infrastructure/tracing"
	"github.com/inkroom/inkroom/internal/persistence"
	"github.com/inkroom/inkroom/internal/persistence/db"
	"github.com/inkroom/inkroom/internal/persistence/store"
	"github.com/inkroom/inkroom/internal/presentation/api"
	"github.com/inkroom/inkroom/internal/presentation/handler/health"
	"github.com/inkroom/inkroom/internal/presentation/handler/rooms"
	"github.com/inkroom/inkroom/internal/registry"
)

const serviceName = "inkroom"

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := logging.NewLogger(logging.NewDefaultConfig())

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	roomStore := buildRoomStore(ctx, cfg, logger)

	m := metrics.NewDefault()
	reg := registry.New(roomStore, logger)
	hist := history.NewStore()

	mirror := persistence.NewMirror(roomStore, cfg.Mirror.QueueSize, cfg.Mirror.Workers, logger, m)
	mirror.Run()
	defer mirror.Close()

	var publisher *events.RoomPublisher
	if cfg.AMQP.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.AMQP.URI)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		publisher = events.NewRoomPublisher(rabbitmq, logger)
		logger.Info(logging.RabbitMQ, logging.Startup, "rabbitmq connected", nil)
	}

	hub := gateway.NewHub(logger)
	gw := gateway.New(reg, hist, hub, mirror, publisherOrNil(publisher), m, logger)
	wsHandler := gateway.NewHandler(gw, cfg.HTTP.AllowedOrigins, logger, m)

	roomHandler := rooms.NewHandler(reg, roomStore, creationPublisherOrNil(publisher), cfg.Directory.Limit, logger)
	healthHandler := health.NewHandler(reg)

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})

	app := api.NewApplication(*cfg, roomHandler, healthHandler, wsHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	if err := app.Run(mux); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}

// buildRoomStore connects to MongoDB when enabled, falling back to the
// in-memory store so the service still comes up without a database.
func buildRoomStore(ctx context.Context, cfg *configs.Config, logger logging.Logger) domain.RoomStore {
	if !cfg.Mongo.Enabled {
		logger.Info(logging.Persistence, logging.Startup, "using in-memory room store", nil)
		return store.NewMemoryRoomStore()
	}

	mongoCfg := &db.MongoConfig{
		URI:               cfg.Mongo.URI,
		Database:          cfg.Mongo.Database,
		ConnectionTimeout: db.DefaultConnectionTimeout,
	}

	client, err := db.NewMongoClient(ctx, mongoCfg)
	if err != nil {
		logger.Warn(logging.Persistence, logging.Startup, "mongodb unavailable, using in-memory room store", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return store.NewMemoryRoomStore()
	}

	mongoStore := store.NewMongoRoomStore(db.GetDatabase(client, mongoCfg))
	if err := mongoStore.EnsureIndexes(ctx); err != nil {
		logger.Warnf("failed to ensure indexes: %v", err)
	}

	logger.Info(logging.Persistence, logging.Startup, "mongodb connected", map[logging.ExtraKey]any{
		"database": cfg.Mongo.Database,
	})
	return mongoStore
}

// A nil *RoomPublisher must become a nil interface, otherwise the nil
// checks downstream never fire.
func publisherOrNil(p *events.RoomPublisher) gateway.Publisher {
	if p == nil {
		return nil
	}
	return p
}

func creationPublisherOrNil(p *events.RoomPublisher) rooms.Publisher {
	if p == nil {
		return nil
	}
	return p
}
