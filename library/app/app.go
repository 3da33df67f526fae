package app

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/config"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/handler"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/notify"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/repository"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/server"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/service"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/internal/worker"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/migrations"
	cb "github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/circuit_breaker"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/kafka"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/logger"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/postgres"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/pkg/sqlite"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func Run(cfg *config.Config) {
	log := logger.NewLogger(cfg.Log, "library")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		log.Fatal("db init", zap.Error(err))
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		log.Fatal("repo", zap.Error(err))
	}

	sink, producer, err := newSink(cfg, log)
	if err != nil {
		log.Fatal("notify sink", zap.Error(err))
	}
	async := notify.NewAsync(sink, log, cfg.NotifyTimeout)
	svc := service.NewService(repo, async, log)

	h := handler.New(svc, cfg.Auth, log)
	srv := server.NewServer(cfg.Server, h.NewRouter())
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("storage", cfg.Storage))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		return worker.NewOverdue(svc, cfg.OverdueInterval, log).Run(gctx)
	})
	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(cfg.Kafka, kafka.PaymentConsumerGroup)
		if err != nil {
			log.Fatal("kafka.NewConsumer", zap.Error(err))
		}
		g.Go(func() error {
			return kafka.Consume(gctx, consumer, handler.NewConsumer(svc.RecordEvent, log), log, kafka.BorrowingTopic)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Graceful shutdown", zap.Error(context.Cause(gctx)))

		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		return srv.Stop(closeCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("stopped with error", zap.Error(err))
	}

	async.Wait()
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn("producer.Close", zap.Error(err))
		}
	}
	db.Close()
	log.Info("Graceful shutdown finished")
}

// OpenDB connects to the configured storage and applies pending migrations.
func OpenDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		return postgres.NewPostgresDB(ctx, &cfg.Database, migrations.MigrationFiles)
	case config.StorageSQLite:
		return sqlite.NewSQLiteDB(ctx, &cfg.SQLite, migrations.MigrationFiles)
	}
	return nil, errors.Errorf("unknown storage %q", cfg.Storage)
}

// newSink publishes to kafka behind a circuit breaker when a broker is
// configured and falls back to the log otherwise.
func newSink(cfg *config.Config, log *zap.Logger) (notify.Sink, sarama.SyncProducer, error) {
	if !cfg.Kafka.Enabled {
		return notify.NewLogSink(log), nil, nil
	}
	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		return nil, nil, errors.Wrap(err, "kafka.NewProducer")
	}
	return notify.NewKafkaSink(producer, kafka.BorrowingTopic, cb.New(cfg.Breaker)), producer, nil
}
