package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mkoval/dexbook/internal/adapter/cache"
	"github.com/mkoval/dexbook/internal/adapter/in_memory"
	"github.com/mkoval/dexbook/internal/adapter/pg"
	httpapi "github.com/mkoval/dexbook/internal/api/http"
	"github.com/mkoval/dexbook/internal/config"
	"github.com/mkoval/dexbook/internal/core"
	"github.com/mkoval/dexbook/internal/event"
	"github.com/mkoval/dexbook/internal/listing"
	"github.com/mkoval/dexbook/internal/logger"
	"github.com/mkoval/dexbook/internal/marketmaker"
	"github.com/mkoval/dexbook/internal/predict"
	"github.com/mkoval/dexbook/internal/port"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer lg.Sync()

	var repo port.Repository
	if cfg.Postgres.Enabled {
		pgRepo, err := pg.NewPgRepo(ctx, cfg.Postgres.DSN)
		if err != nil {
			lg.Fatal("connect postgres", zap.Error(err))
		}
		defer pgRepo.Close(ctx)
		repo = pgRepo
	} else {
		repo = in_memory.NewMemoryRepo()
	}

	var bookCache port.Cache
	if cfg.Redis.Enabled {
		bookCache = cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	} else {
		bookCache = in_memory.NewCache()
	}

	refPrice, err := decimal.NewFromString(cfg.Engine.ReferencePrice)
	if err != nil {
		lg.Fatal("parse engine.reference_price", zap.Error(err))
	}

	registry := listing.NewRegistry(repo, lg, refPrice)
	hub := event.NewHub(cfg.WS.Queue)
	eng := core.NewEngine(repo, bookCache, hub, lg, core.Options{
		TradeHistory:   cfg.Engine.TradeHistory,
		ReferencePrice: refPrice,
		RefPrices:      registry,
	})

	multiplier, err := decimal.NewFromString(cfg.Predict.Multiplier)
	if err != nil {
		lg.Fatal("parse predict.multiplier", zap.Error(err))
	}
	bets := predict.NewService(eng, predict.Config{
		Multiplier:  multiplier,
		MinDuration: cfg.Predict.MinDuration,
		MaxDuration: cfg.Predict.MaxDuration,
	}, lg)

	if cfg.MarketMaker.Enabled {
		size, err := decimal.NewFromString(cfg.MarketMaker.Size)
		if err != nil {
			lg.Fatal("parse marketmaker.size", zap.Error(err))
		}
		bot := marketmaker.New(eng, registry, marketmaker.Config{
			Address:  cfg.MarketMaker.Address,
			Interval: cfg.MarketMaker.Interval,
			Spread:   decimal.New(cfg.MarketMaker.SpreadBps, -4),
			Size:     size,
		}, lg)
		go bot.Run(ctx)
	}

	server := httpapi.NewServer(eng, registry, bets, lg, httpapi.Options{
		RateLimit:      cfg.Server.RateLimit,
		WSWriteTimeout: cfg.WS.WriteTimeout,
	})

	lg.Info("starting HTTP server", zap.String("addr", cfg.Server.Addr))
	if err := server.Run(cfg.Server.Addr); err != nil {
		lg.Fatal("HTTP server failed", zap.Error(err))
	}
}
