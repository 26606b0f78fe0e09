package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	healthcheck "github.com/vladislavdragonenkov/storefront/internal/health"
	"github.com/vladislavdragonenkov/storefront/internal/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/orders"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/version"
)

const shutdownTimeout = 5 * time.Second

func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")
	deps := NewDependencies(logger)
	defer deps.Close()

	if cfg.PostgresDSN != "" {
		if err := deps.initPostgres(ctx, cfg.PostgresDSN); err != nil {
			return err
		}
	} else {
		logger.Info("POSTGRES_DSN не задан, используется in-memory хранилище")
	}

	if cfg.RedisAddr != "" {
		if err := deps.initRedis(ctx, cfg.RedisAddr); err != nil {
			return err
		}
	}

	kafkaProducer, _ := initKafkaProducer(cfg.KafkaBrokers, logger)
	defer closeKafka(kafkaProducer, logger)

	orderMetrics := metrics.NewOrderMetrics()
	orderService := orders.NewService(deps.Orders, deps.Users, deps.Timeline, deps.Outbox, orderMetrics)

	if kafkaProducer != nil {
		worker := outbox.NewWorker(
			deps.Outbox,
			kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicOrderEvents),
			outbox.WithLogger(log.WithField("component", "outbox-worker")),
			outbox.WithDLQPublisher(kafka.NewOutboxPublisher(kafkaProducer, kafka.TopicDeadLetterQueue)),
		)
		go worker.Run(ctx)
	} else {
		logger.Info("kafka не настроен, outbox worker отключён")
	}

	cleanup := idempotency.NewCleanupWorker(
		deps.Idempotency,
		idempotency.WithLogger(log.WithField("component", "idempotency-cleanup")),
	)
	go cleanup.Run(ctx)

	var decoder httpapi.TokenDecoder
	if cfg.AdminToken != "" {
		decoder = httpapi.StaticTokenDecoder{
			cfg.AdminToken: {UserID: "admin", IsAdmin: true},
		}
	}

	handler := httpapi.NewOrdersHandler(orderService, deps.Idempotency)
	router := httpapi.NewRouter(handler, decoder)

	healthHandler := healthcheck.NewHandler(version.String())
	if deps.Store != nil {
		store := deps.Store
		healthHandler.RegisterChecker("postgres", healthcheck.NewSimpleChecker("postgres", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return store.Ping(pingCtx)
		}))
	}
	if deps.RedisClient != nil {
		client := deps.RedisClient
		healthHandler.RegisterChecker("redis", healthcheck.NewSimpleChecker("redis", func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Ping(pingCtx).Err()
		}))
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		errCh <- apiSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, logger)
		shutdownHTTP(metricsSrv, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(metricsSrv, logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/readyz, %s/livez", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
