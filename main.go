package main

import (
	"context"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"todos-api/api"
	"todos-api/storage"
)

func main() {
	cfg, err := loadConfig(os.Getenv)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := log.New()
	if cfg.debug {
		logger.SetLevel(log.DebugLevel)
	}

	var store api.Storage = storage.NewMemory()
	if cfg.redisOptions != nil {
		rc := redis.NewClient(cfg.redisOptions)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rc.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		store = storage.NewCache(store, rc, cfg.listCacheTTL)
		logger.WithField("ttl", cfg.listCacheTTL).Info("list cache enabled")
	}

	e := api.New(store, logger, api.Options{
		BodyLimit:          cfg.bodyLimit,
		LegacyErrorMessage: cfg.legacyErrorMessage,
	})

	logger.WithField("addr", cfg.listenAddr).Info("todos api listening")
	e.Logger.Fatal(e.Start(cfg.listenAddr))
}
