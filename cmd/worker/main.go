package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erebos42/shortcut/internal/domain/entity"
	"github.com/erebos42/shortcut/internal/domain/similarity"
	"github.com/erebos42/shortcut/internal/infra/config"
	"github.com/erebos42/shortcut/internal/infra/email"
	"github.com/erebos42/shortcut/internal/infra/ffmpeg"
	"github.com/erebos42/shortcut/internal/infra/live"
	"github.com/erebos42/shortcut/internal/infra/metrics"
	miniostorage "github.com/erebos42/shortcut/internal/infra/minio"
	"github.com/erebos42/shortcut/internal/infra/postgres"
	"github.com/erebos42/shortcut/internal/infra/rabbitmq"
	"github.com/erebos42/shortcut/internal/infra/report"
	"github.com/erebos42/shortcut/internal/infra/tracing"
	"github.com/erebos42/shortcut/internal/shortcut"
	"github.com/erebos42/shortcut/internal/usecase"
	"github.com/erebos42/shortcut/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting shortcut-worker")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if Jaeger unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.JaegerEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Scan setup fails fast on a bad frame config or metric
	frameCfg, err := entity.NewFrameConfig(entity.PixelFormat(cfg.FrameColor), cfg.FrameWidth, cfg.FrameHeight)
	fatalOnErr(err, "frame config")
	comparator, err := similarity.New(cfg.SimilarityMetric, cfg.DiffThreshold)
	fatalOnErr(err, "similarity metric")
	encoder, err := report.NewEncoder(cfg.ReportFormat)
	fatalOnErr(err, "report encoder")

	scanner := shortcut.New(
		ffmpeg.NewDecoder(cfg.DecoderBin, log),
		frameCfg,
		comparator,
		shortcut.WithFrameRate(cfg.FrameRate),
		shortcut.WithConfidence(cfg.CutConfidence),
	)

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     cfg.MinIOEndpoint,
		AccessKey:    cfg.MinIOAccessKey,
		SecretKey:    cfg.MinIOSecretKey,
		UseSSL:       cfg.MinIOUseSSL,
		UploadBucket: cfg.MinIOUploadBucket,
		ResultBucket: cfg.MinIOResultBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")
	defer pub.Close()

	statusPub := rabbitmq.NewStatusPublisher(pub, cfg.RabbitMQStatusQueue)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	hub := live.NewHub(log)
	defer hub.Close()

	uc := usecase.NewDetectCutsUseCase(
		usecase.DetectCutsDeps{
			Repo:      postgres.NewJobRepository(pool),
			Storage:   storage,
			Prober:    ffmpeg.NewProber(cfg.ProbeBin),
			Scanner:   scanner,
			Keyframes: ffmpeg.NewKeyframeWriter(),
			Zipper:    ffmpeg.NewZipCreator(),
			Encoder:   encoder,
			Publisher: statusPub,
			DLQ:       dlqPub,
			Notifier:  email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log),
			Live:      hub,
		},
		log,
		usecase.DetectCutsConfig{
			TempDir:          cfg.TempDir,
			MaxRetries:       cfg.MaxRetries,
			DecodeTimeout:    cfg.DecodeTimeout,
			KeyframesEnabled: cfg.KeyframesEnabled,
			Metric:           cfg.SimilarityMetric,
		},
	)

	// Metrics server with the live cut feed
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log, map[string]http.Handler{
		"/ws/cuts": hub,
	})

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQProcessingQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("shortcut-worker started, consuming messages",
		zap.String("pix_fmt", string(frameCfg.Color)),
		zap.String("size", frameCfg.Size()),
		zap.String("metric", cfg.SimilarityMetric),
	)

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("shortcut-worker stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}
