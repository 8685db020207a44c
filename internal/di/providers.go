package di

import (
	"context"
	"fmt"
	"time"

	domrepo "seismograph/internal/domain/repository"
	"seismograph/internal/handler/api"
	internalrepo "seismograph/internal/repository"
	icache "seismograph/internal/service/cache"
	"seismograph/internal/services/features"
	"seismograph/internal/services/forensics"
	"seismograph/internal/services/marketdata"
	"seismograph/internal/services/regime"
	"seismograph/internal/usecase"
	pkgcache "seismograph/pkg/cache"
	pkgch "seismograph/pkg/clickhouse"
	"seismograph/pkg/config"
	pkgkafka "seismograph/pkg/kafka"
	applogger "seismograph/pkg/logger"
	"seismograph/pkg/metrics"
	"seismograph/pkg/server"
)

// Services is the analysis stack without an HTTP surface, used by the CLI.
type Services struct {
	States    *usecase.MarketStateUseCase
	Analysis  *usecase.AnalysisUseCase
	Portfolio *usecase.PortfolioUseCase
	Cache     domrepo.HistoryCache

	resources []server.Resource
}

// Close releases infrastructure clients in reverse order.
func (s *Services) Close() error {
	var first error
	for i := len(s.resources) - 1; i >= 0; i-- {
		if err := s.resources[i].Close(); err != nil && first == nil {
			first = fmt.Errorf("close %s: %w", s.resources[i].Name, err)
		}
	}
	return first
}

// Infra groups optional clients so they can be closed together.
type Infra struct {
	Cache      pkgcache.Service
	ClickHouse *pkgch.Client
	Producer   *pkgkafka.Producer
}

// Resources lists the clients that were actually opened.
func (i Infra) Resources() []server.Resource {
	var out []server.Resource
	if i.Cache != nil {
		out = append(out, server.Resource{Name: "cache", Closer: i.Cache})
	}
	if i.ClickHouse != nil {
		out = append(out, server.Resource{Name: "clickhouse", Closer: i.ClickHouse})
	}
	if i.Producer != nil {
		out = append(out, server.Resource{Name: "kafka", Closer: i.Producer})
	}
	return out
}

// ProvideLogger builds the zerolog logger from cfg.Log.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("service", "seismograph"), applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(cfg *config.Config) domrepo.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New()
}

// ProvideCacheService opens the configured cache backend. Backend "none"
// yields nil.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	c := cfg.Cache
	memory := func() *pkgcache.MemoryCache {
		return pkgcache.NewMemoryCache(
			pkgcache.WithMemoryMaxSize(c.MaxSize),
			pkgcache.WithMemoryDefaultTTL(c.TTL),
			pkgcache.WithMemoryCleanup(c.CleanupInterval),
		)
	}
	redis := func() (*pkgcache.RedisCache, error) {
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisAddr(c.Redis.Addr),
			pkgcache.WithRedisPassword(c.Redis.Password),
			pkgcache.WithRedisDB(c.Redis.DB),
			pkgcache.WithRedisPrefix(c.Redis.Prefix),
			pkgcache.WithRedisPool(c.Redis.PoolSize, c.Redis.MinIdle, 0),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	switch c.Backend {
	case "none":
		return nil, nil
	case "redis":
		rc, err := redis()
		if err != nil {
			return nil, err
		}
		return rc, nil
	case "layered":
		l2, err := redis()
		if err != nil {
			return nil, err
		}
		return pkgcache.NewLayeredCache(l2,
			pkgcache.WithLayeredMemorySize(c.MaxSize),
			pkgcache.WithLayeredMemoryTTL(c.MemoryTTL),
		), nil
	default:
		return memory(), nil
	}
}

// ProvideHistoryCache adapts the cache backend to price histories.
func ProvideHistoryCache(svc pkgcache.Service, cfg *config.Config) domrepo.HistoryCache {
	if svc == nil {
		return nil
	}
	return icache.NewHistoryCache(svc, cfg.Cache.TTL)
}

// ProvidePriceFetcher creates the rate-limited, breaker-guarded chart client,
// fronted by the history cache when one is configured.
func ProvidePriceFetcher(cfg *config.Config, cache domrepo.HistoryCache, m domrepo.Metrics, l *applogger.Logger) domrepo.PriceFetcher {
	md := cfg.MarketData
	f := marketdata.NewFetcher(marketdata.Config{
		BaseURL:             md.BaseURL,
		UserAgent:           md.UserAgent,
		Timeout:             md.Timeout,
		Rate:                md.Rate,
		Burst:               md.Burst,
		Retries:             md.Retry.Attempts,
		RetryBackoff:        md.Retry.Backoff,
		BreakerMaxRequests:  md.Breaker.MaxRequests,
		BreakerInterval:     md.Breaker.Interval,
		BreakerTimeout:      md.Breaker.Timeout,
		BreakerFailureRatio: md.Breaker.FailureRatio,
		BreakerMinRequests:  md.Breaker.MinRequests,
	}, m, l)
	if cache == nil {
		return f
	}
	return icache.NewCachedFetcher(f, cache)
}

// ProvideEngine builds the feature pipeline and classifier from config.
func ProvideEngine(cfg *config.Config) (*regime.Engine, error) {
	p, err := features.NewPipeline(features.WithConfig(cfg.Analysis.Features))
	if err != nil {
		return nil, fmt.Errorf("feature pipeline: %w", err)
	}
	c, err := regime.NewClassifier(cfg.Analysis.Classifier)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	return regime.NewEngine(p, c), nil
}

// ProvideAnalyzer creates the crash forensics analyzer.
func ProvideAnalyzer(cfg *config.Config) *forensics.Analyzer {
	return forensics.NewAnalyzer(cfg.Analysis.Forensics)
}

// ProvideClickHouseClient connects and applies the bar store schema. Nil when
// ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	c := cfg.ClickHouse
	if !c.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(c.Host, c.Port),
		pkgch.WithDatabase(c.Database),
		pkgch.WithCredentials(c.User, c.Password),
		pkgch.WithPool(c.MaxOpenConns, c.MaxIdleConns, c.ConnMaxLifetime),
		pkgch.WithHTTP(c.UseHTTP),
		pkgch.WithAsyncInsert(c.AsyncInsert, c.WaitForAsync),
		pkgch.WithTimeouts(c.DialTimeout, c.ReadTimeout),
		pkgch.WithMaxExecutionTime(c.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.Schema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore persists bars and states when ClickHouse is enabled.
func ProvideBarStore(client *pkgch.Client, l *applogger.Logger) domrepo.BarStore {
	if client == nil {
		return nil
	}
	return internalrepo.NewCHBarStore(client, l)
}

// ProvideKafkaProducer creates a Kafka producer. Nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	k := cfg.Kafka
	if !k.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithDelivery(k.RequiredAcks, k.Producer.MaxAttempts),
		pkgkafka.WithBatching(k.Producer.BatchSize, k.Producer.BatchBytes, k.Producer.Linger),
		pkgkafka.WithTimeouts(k.Producer.WriteTimeout, k.Producer.ReadTimeout),
		pkgkafka.WithAsync(k.Producer.Async),
		pkgkafka.WithBalancer(pkgkafka.BalancerHash),
	)
	if err != nil {
		return nil, err
	}
	return producer, nil
}

// ProvideStatePublisher announces regime transitions on the configured topic.
func ProvideStatePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.StatePublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaStatePublisher(producer, cfg.Kafka.Topic)
}

// ProvideInfra groups the optional clients.
func ProvideInfra(svc pkgcache.Service, client *pkgch.Client, producer *pkgkafka.Producer) Infra {
	return Infra{Cache: svc, ClickHouse: client, Producer: producer}
}

// ProvideUseCaseOptions passes optional collaborators to every use case.
func ProvideUseCaseOptions(cfg *config.Config, store domrepo.BarStore, pub domrepo.StatePublisher, m domrepo.Metrics, l *applogger.Logger) []usecase.Option {
	opts := []usecase.Option{
		usecase.WithMetrics(m),
		usecase.WithLogger(l),
		usecase.WithTimeout(cfg.Analysis.Timeout),
	}
	if store != nil {
		opts = append(opts, usecase.WithBarStore(store))
	}
	if pub != nil {
		opts = append(opts, usecase.WithPublisher(pub))
	}
	return opts
}

func ProvideMarketStateUseCase(f domrepo.PriceFetcher, e *regime.Engine, opts []usecase.Option) *usecase.MarketStateUseCase {
	return usecase.NewMarketStateUseCase(f, e, opts...)
}

func ProvideAnalysisUseCase(states *usecase.MarketStateUseCase, a *forensics.Analyzer, opts []usecase.Option) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(states, a, opts...)
}

func ProvidePortfolioUseCase(states *usecase.MarketStateUseCase, e *regime.Engine, cfg *config.Config, opts []usecase.Option) *usecase.PortfolioUseCase {
	return usecase.NewPortfolioUseCase(states, e.Classifier().Thresholds(), cfg.Analysis.Confirmations, opts...)
}

// ProvideMarketHandler creates the echo API handler.
func ProvideMarketHandler(
	l *applogger.Logger,
	states *usecase.MarketStateUseCase,
	analysis *usecase.AnalysisUseCase,
	portfolio *usecase.PortfolioUseCase,
	cache domrepo.HistoryCache,
	cfg *config.Config,
) *api.MarketHandler {
	return api.NewMarketHandler(l, states, analysis, portfolio, cache, cfg.Strategy.Profile, cfg.Strategy.Overrides)
}

// ProvideServices bundles the use cases for the CLI.
func ProvideServices(
	states *usecase.MarketStateUseCase,
	analysis *usecase.AnalysisUseCase,
	portfolio *usecase.PortfolioUseCase,
	cache domrepo.HistoryCache,
	infra Infra,
) *Services {
	return &Services{
		States:    states,
		Analysis:  analysis,
		Portfolio: portfolio,
		Cache:     cache,
		resources: infra.Resources(),
	}
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, h *api.MarketHandler, l *applogger.Logger, infra Infra) *server.App {
	return server.New(cfg, h, l, infra.Resources()...)
}
