package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"message-dispatcher/internal/bus"
	"message-dispatcher/internal/bus/amqpbus"
	"message-dispatcher/internal/bus/redisbus"
	"message-dispatcher/internal/common/logging"
	"message-dispatcher/internal/config"
	"message-dispatcher/internal/dispatcher"
	"message-dispatcher/internal/kvstore"
	"message-dispatcher/internal/routing"
	"message-dispatcher/internal/server"
)

func main() {
	_ = godotenv.Load()

	logging.InitGlobalLogger()
	defer logging.MustSync()

	// Load and validate configuration; traffic must never be served with a
	// broken routing table.
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	routingCfg, err := config.LoadRoutingConfig(cfg.RoutingFile)
	if err != nil {
		log.Fatalf("Invalid routing configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect the bus.
	var b bus.Bus
	switch cfg.BusBackend {
	case config.BusAMQP:
		b, err = amqpbus.New(&amqpbus.Config{URL: cfg.AMQPURL})
	case config.BusRedis:
		b, err = redisbus.New(&redisbus.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	if err != nil {
		log.Fatalf("Failed to connect to bus: %v", err)
	}
	defer b.Close()

	// Connect the KV store only for variants that keep durable state.
	var store kvstore.Store
	if routing.NeedsStore(routingCfg.Router) {
		store, err = kvstore.NewRedisStore(&kvstore.Config{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: cfg.RedisPoolSize,
		})
		if err != nil {
			log.Fatalf("Failed to connect to key-value store: %v", err)
		}
		defer store.Close()
	}

	worker := dispatcher.NewWorker(routingCfg.DispatcherName, b,
		routingCfg.TransportNames, routingCfg.ExposedNames)

	diag := routing.NewLogDiagnostics(logging.GetGlobalLogger())
	router, err := routing.BuildRouter(routingCfg, worker, store, diag)
	if err != nil {
		log.Fatalf("Failed to build router: %v", err)
	}

	if err := worker.Start(ctx, router); err != nil {
		log.Fatalf("Failed to start dispatch worker: %v", err)
	}

	checkers := map[string]server.HealthChecker{"bus": b}
	if store != nil {
		checkers["store"] = store
	}
	ops := server.New(cfg.OpsPort, routingCfg, checkers)
	ops.Start()

	logging.Info("dispatcher running",
		logging.String("router", routingCfg.Router),
		logging.String("bus", cfg.BusBackend),
		logging.String("ops_port", cfg.OpsPort))

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logging.Error("ops server shutdown failed", err)
	}
	logging.Info("dispatcher stopped")
}
