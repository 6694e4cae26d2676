package di

import (
	"context"
	"fmt"
	"time"

	"QuantPanel/internal/domain/models"
	domrepo "QuantPanel/internal/domain/repository"
	"QuantPanel/internal/handler/api"
	internalrepo "QuantPanel/internal/repository"
	"QuantPanel/internal/service/cache"
	"QuantPanel/internal/service/ratelimit"
	"QuantPanel/internal/service/yahoo"
	"QuantPanel/internal/services/indicator"
	"QuantPanel/internal/usecase"
	pkgch "QuantPanel/pkg/clickhouse"
	"QuantPanel/pkg/config"
	xhttp "QuantPanel/pkg/http"
	pkgkafka "QuantPanel/pkg/kafka"
	applogger "QuantPanel/pkg/logger"
	"QuantPanel/pkg/metrics"
	"QuantPanel/pkg/server"
)

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	p := cfg.Kafka.Producer
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(p.Compression),
		pkgkafka.WithRequiredAcks(p.RequiredAcks),
		pkgkafka.WithMaxAttempts(p.MaxAttempts),
		pkgkafka.WithBatch(p.BatchSize, p.Linger),
		pkgkafka.WithWriteTimeout(p.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the app logger. Repeated errors are shipped to
// logging.collect_topic when a producer is available.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.CollectTopic == "" || producer == nil {
		return l, func() {}, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Logging.CollectInterval,
		CountThreshold: cfg.Logging.CollectMax,
		Topic:          cfg.Logging.CollectTopic,
		Publisher:      producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(nil)
}

// ProvideClickHouseClient connects when the loader reads from ClickHouse.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if cfg.Loader.Source != "clickhouse" {
		return nil, func() {}, nil
	}
	ch := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if ch.InitSchema {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, pkgch.ClosesSchema(ch.Database, ch.Table)); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		l.Info("clickhouse schema ready", applogger.String("table", ch.Database+"."+ch.Table))
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideRedisCache connects the shared price cache when enabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, func(), error) {
	if !cfg.Cache.Enabled || !cfg.Cache.Redis.Enabled {
		return nil, func() {}, nil
	}
	r := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
	return r, func() { _ = r.Close() }, nil
}

// ProvidePriceLoader picks the configured source and wraps it in the price
// cache. Only raw closes are cached.
func ProvidePriceLoader(
	cfg *config.Config,
	l *applogger.Logger,
	ch *pkgch.Client,
	redisCache *cache.RedisCache,
	m domrepo.Metrics,
) (domrepo.PriceLoader, error) {
	var loader domrepo.PriceLoader
	switch cfg.Loader.Source {
	case "yahoo":
		y := yahoo.New(cfg.Yahoo.BaseURL, xhttp.NewClient(
			xhttp.WithTimeout(cfg.Loader.Timeout),
			xhttp.WithUserAgent(cfg.Yahoo.UserAgent),
		))
		y.SetLogger(l)
		loader = y
	case "clickhouse":
		if ch == nil {
			return nil, fmt.Errorf("clickhouse loader: client not configured")
		}
		store := internalrepo.NewCHPriceStore(ch.DB(), cfg.ClickHouse.Database+"."+cfg.ClickHouse.Table)
		store.SetLogger(l)
		loader = store
	default:
		return nil, fmt.Errorf("unknown loader source %q", cfg.Loader.Source)
	}

	if !cfg.Cache.Enabled {
		return loader, nil
	}
	var bc cache.BytesCache = cache.NewTTLCache(cfg.Cache.MemoryEntries)
	if redisCache != nil {
		bc = cache.NewLayered(bc, redisCache, cfg.Cache.MemoryTTL)
	}
	cl := cache.NewCachedLoader(loader, bc, cfg.Cache.TTL, m)
	cl.SetLogger(l)
	return cl, nil
}

// ProvideSnapshotPublisher publishes run summaries when Kafka is on.
func ProvideSnapshotPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.SnapshotPublisher {
	if producer == nil || cfg.Kafka.SnapshotTopic == "" {
		return nil
	}
	return internalrepo.NewKafkaSnapshotPublisher(producer, cfg.Kafka.SnapshotTopic)
}

// ProvideIndicatorUseCase creates the indicator use case.
func ProvideIndicatorUseCase(
	loader domrepo.PriceLoader,
	m domrepo.Metrics,
	pub domrepo.SnapshotPublisher,
	l *applogger.Logger,
) *usecase.IndicatorUseCase {
	uc := usecase.NewIndicatorUseCase(loader, indicator.NewPipeline(), m)
	uc.SetLogger(l)
	if pub != nil {
		uc.SetPublisher(pub)
	}
	return uc
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if cfg.RateLimit.Capacity <= 0 {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideIndicatorHandler creates the indicator HTTP handler seeded with the
// configured request defaults.
func ProvideIndicatorHandler(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.IndicatorUseCase,
	rl *ratelimit.Limiter,
) *api.IndicatorHandler {
	h := api.NewIndicatorHandler(l, uc, rl)
	h.SetDefaults(models.IndicatorRequest{
		TF:        cfg.Indicator.Timeframe,
		Windows:   cfg.Indicator.Windows,
		ZLookback: cfg.Indicator.ZScoreLookback,
		KLookback: cfg.Indicator.StochasticLookback,
	})
	return h
}

// ProvideHealthHandler registers a readiness check per connected dependency.
func ProvideHealthHandler(ch *pkgch.Client, redisCache *cache.RedisCache) *api.HealthHandler {
	h := api.NewHealthHandler(2 * time.Second)
	if ch != nil {
		h.Add("clickhouse", ch.Health)
	}
	if redisCache != nil {
		h.Add("redis", redisCache.Ping)
	}
	return h
}

// ProvideHTTPServer creates the Echo server with every handler registered.
func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	ih *api.IndicatorHandler,
	hh *api.HealthHandler,
) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer([]xhttp.Handler{ih, hh},
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates the recompute consumer, or nil when no
// request topic is configured.
func ProvideKafkaConsumer(
	cfg *config.Config,
	l *applogger.Logger,
	uc *usecase.IndicatorUseCase,
	m domrepo.Metrics,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RequestTopic == "" {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerStartOffset(c.StartOffset),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewRecomputeHandler(cfg.Kafka.RequestTopic, uc, m))
	return consumer, nil
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, consumer *pkgkafka.Consumer) *server.App {
	return server.New(cfg, l, srv, consumer)
}
