package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/radieske/fruit-slice-platform/internal/game-service/catalog"
	"github.com/radieske/fruit-slice-platform/internal/game-service/engine"
	ghttp "github.com/radieske/fruit-slice-platform/internal/game-service/http"
	kpub "github.com/radieske/fruit-slice-platform/internal/game-service/producer"
	"github.com/radieske/fruit-slice-platform/internal/game-service/ratelimit"
	"github.com/radieske/fruit-slice-platform/internal/game-service/repo"
	"github.com/radieske/fruit-slice-platform/internal/shared/cache"
	"github.com/radieske/fruit-slice-platform/internal/shared/config"
	"github.com/radieske/fruit-slice-platform/internal/shared/db"
	skafka "github.com/radieske/fruit-slice-platform/internal/shared/kafka"
	"github.com/radieske/fruit-slice-platform/internal/shared/logger"
	"github.com/radieske/fruit-slice-platform/internal/shared/metrics"
)

func main() {
	cfg := config.Load()

	log, err := logger.New("game-service", cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	log.Info("starting service", zap.String("env", cfg.Env))

	// Configuração versionada do cálculo de resultado
	outcomeCfg := engine.DefaultConfig()
	if cfg.OutcomeConfigPath != "" {
		outcomeCfg, err = engine.LoadConfig(cfg.OutcomeConfigPath)
		if err != nil {
			log.Fatal("outcome config", zap.Error(err))
		}
	}
	log.Info("outcome config", zap.String("version", outcomeCfg.Version))

	// Postgres: sessões, rodadas, carteiras, extrato, catálogo
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("postgres connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis: rate limiting e cache do catálogo
	rdb, err := cache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (topic round_settled)
	writer := skafka.NewWriter(cfg.KafkaBrokers, cfg.TopicRoundSettled)
	defer writer.Close()

	store := repo.NewPostgres(pg)
	api := ghttp.NewServer(
		log,
		store,
		catalog.New(rdb, store),
		ratelimit.New(rdb),
		kpub.NewKafkaPublisher(writer, cfg.TopicRoundSettled),
		outcomeCfg,
		cfg.StakeMinCents,
		cfg.StakeMaxCents,
	)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: api.Router(),
	}

	// Servidor de métricas e health check em goroutine separada
	metricsSrv := metrics.StartMetricsServer(cfg.MetricsPort,
		pg.PingContext,
		func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	)
	log.Info("metrics/health listening", zap.String("addr", metricsSrv.Addr))

	log.Info("api listening", zap.String("addr", apiSrv.Addr))
	if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("api srv", zap.Error(err))
	}
}
