package main

import (
	"context"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
	"go.uber.org/zap"

	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/auth"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/chat"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/job"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/server"
	"github.com/DAMIR030303/Vohada-Ish-sub001/internal/storage"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("zap.NewDevelopment: %v", err)
	}
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Info("Application is starting")

	var (
		serverCfg  server.EnvConfig
		storageCfg storage.Config
		redisCfg   chat.RedisConfig
		authCfg    auth.Config
	)
	for _, cfg := range []interface{}{&serverCfg, &storageCfg, &redisCfg, &authCfg} {
		if err := env.Parse(cfg); err != nil {
			sugar.Fatalf("Cannot parse env config: %v", err)
		}
	}

	ctx := context.Background()

	store, err := storage.New(ctx, sugar, storageCfg, storage.ConnectionTimeout(30*time.Second))
	if err != nil {
		sugar.Fatalf("Cannot create Store instance: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		sugar.Fatalf("Cannot migrate database schema: %v", err)
	}

	redisClient, err := chat.NewRedisClient(ctx, redisCfg)
	if err != nil {
		sugar.Fatalf("Cannot connect to Redis: %v", err)
	}

	deps := server.Deps{
		Auth: auth.NewService(sugar, store, authCfg),
		Jobs: job.NewService(sugar, store),
		Chat: chat.NewService(sugar, store, chat.NewRedisNotifier(sugar, redisClient)),
	}

	srv, err := server.NewServer(sugar, serverCfg, deps, server.ReadTimeout(5*time.Second))
	if err != nil {
		sugar.Fatalf("Cannot create Server instance: %v", err)
	}

	srv.RegisterAfterShutdown(func() {
		sugar.Info("Closing store")
		store.Close()

		if err := redisClient.Close(); err != nil {
			sugar.Errorf("Closing redis client: %v", err)
		}
	})

	if err := srv.Start(); err != nil {
		sugar.Fatalf("Cannot start http srv: %v", err)
	}
}
