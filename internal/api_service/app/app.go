package apiApp

import (
	"context"
	"log"
	"log/slog"

	"github.com/langowen/exchange-rates/deploy/config"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/api_client/exchangehost"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/broker/kafka"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/cache/memory"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/storage/postgres"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/storage/redis"
	"github.com/langowen/exchange-rates/internal/api_service/catalog"
	"github.com/langowen/exchange-rates/internal/api_service/metrics"
	"github.com/langowen/exchange-rates/internal/api_service/ports/http/public"
	"github.com/langowen/exchange-rates/internal/api_service/service"
	"github.com/langowen/exchange-rates/internal/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	redisPack "github.com/redis/go-redis/v9"
)

type ApiApp struct {
	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	closers  []func()
}

func NewApiApp(cfg *config.Config) *ApiApp {
	return &ApiApp{cfg: cfg}
}

// Start wires every component and serves until ctx is done. The returned
// channel is closed after the server stopped and resources were released.
func (a *ApiApp) Start(ctx context.Context) <-chan struct{} {
	a.initLogger()
	slog.Info("Logger initialized")

	slog.Info("starting server", "port", a.cfg.HTTPServer.Port, "provider", a.cfg.Provider.URL,
		"cache_enabled", a.cfg.Cache.Enabled, "signal", a.cfg.Catalog.Signal, "storage", a.cfg.Storage.Enabled)

	a.initMetrics()
	slog.Info("Metrics initialized")

	pgStorage := a.initDatabase(ctx)

	rateCache := a.initCache()
	slog.Info("Cache initialized")

	provider := a.initProvider()
	slog.Info("Rate provider client initialized")

	publisher, subscriber := a.initSignal(ctx)
	slog.Info("Refresh signal initialized", "transport", a.cfg.Catalog.Signal)

	currencies, refresher := a.initCatalog(ctx, provider, pgStorage, subscriber)
	slog.Info("Currency catalog initialized", "currencies", currencies.Len())

	apiService := a.initService(rateCache, provider, currencies, publisher)
	slog.Info("Service initialized")

	serverDone := public.StartServer(ctx, a.cfg, public.Dependencies{
		Service:    apiService,
		Cache:      rateCache,
		Currencies: currencies,
		Refresher:  refresher,
		Metrics:    a.metrics,
		Gatherer:   a.registry,
	})
	slog.Info("server started")

	done := make(chan struct{})
	go func() {
		<-serverDone
		apiService.Wait()
		a.close()
		close(done)
	}()

	return done
}

func (a *ApiApp) initLogger() {
	logger.Setup(a.cfg.Log.Level, a.cfg.Log.Format)
}

func (a *ApiApp) initMetrics() {
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.metrics = metrics.New(a.registry)
}

// initDatabase returns nil when persistence is switched off.
func (a *ApiApp) initDatabase(ctx context.Context) *postgres.Storage {
	if !a.cfg.Storage.Enabled {
		slog.Info("Storage disabled")
		return nil
	}

	dsn := a.cfg.Storage.URL()

	if a.cfg.Storage.Migrate {
		if err := postgres.Migrate(dsn); err != nil {
			log.Fatalln("Failed to migrate PostgresSQL storage", "error", err)
		}
		slog.Info("Storage migrated")
	}

	pgStorage, err := postgres.InitStorage(ctx, dsn, a.cfg.Storage.Timeout)
	if err != nil {
		log.Fatalln("Failed to initialize PostgresSQL storage", "error", err)
	}
	a.closers = append(a.closers, pgStorage.Close)
	slog.Info("Storage initialized")

	return pgStorage
}

func (a *ApiApp) initCache() *memory.Cache {
	rateCache := memory.NewDisabled()
	if a.cfg.Cache.Enabled {
		rateCache = memory.New(memory.Options{
			Capacity: a.cfg.Cache.Capacity,
			TTL:      a.cfg.Cache.TTL,
		})
	}

	a.metrics.RegisterCache(rateCache.Statistics)

	return rateCache
}

func (a *ApiApp) initProvider() *exchangehost.HTTPClient {
	return exchangehost.NewHTTPClient(exchangehost.Config{
		BaseURL:    a.cfg.Provider.URL,
		AccessKey:  a.cfg.Provider.AccessKey,
		Timeout:    a.cfg.Provider.Timeout,
		Attempts:   a.cfg.Provider.Attempts,
		RetryDelay: a.cfg.Provider.RetryDelay,
		RPS:        a.cfg.Provider.RPS,
		Burst:      a.cfg.Provider.Burst,
	}, a.metrics)
}

func (a *ApiApp) initSignal(ctx context.Context) (service.RefreshPublisher, catalog.Subscriber) {
	switch a.cfg.Catalog.Signal {
	case config.SignalRedis:
		rdStorage, err := redis.InitStorage(ctx, &redisPack.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		}, a.cfg.Redis.Channel)
		if err != nil {
			log.Fatalln("Failed to initialize Redis storage", "error", err)
		}
		a.closers = append(a.closers, func() { _ = rdStorage.Close() })

		return rdStorage, rdStorage

	case config.SignalKafka:
		broker, err := kafka.NewBroker(kafka.Config{
			Brokers: a.cfg.Kafka.Brokers,
			Topic:   a.cfg.Kafka.Topic,
			GroupID: a.cfg.Kafka.GroupID,
		})
		if err != nil {
			log.Fatalln("Failed to initialize Kafka broker", "error", err)
		}
		a.closers = append(a.closers, func() { _ = broker.Close() })

		// The currency_fetcher consumes the topic when sync runs out of process.
		if !a.cfg.Catalog.Sync {
			return broker, nil
		}

		return broker, broker

	default:
		local := catalog.NewLocalSignal()
		return local, local
	}
}

func (a *ApiApp) initCatalog(ctx context.Context, provider *exchangehost.HTTPClient, pgStorage *postgres.Storage, subscriber catalog.Subscriber) (*catalog.Catalog, *catalog.Refresher) {
	currencies := catalog.New()

	var symbols catalog.SymbolsProvider
	if a.cfg.Catalog.Sync {
		symbols = provider
	}

	var store catalog.Store
	if pgStorage != nil {
		store = pgStorage
	}

	if symbols == nil && store == nil {
		log.Fatalln("CATALOG_SYNC=false requires BD_ENABLED=true")
	}

	refresher := catalog.NewRefresher(currencies, symbols, store, subscriber, catalog.RefresherConfig{
		Interval: a.cfg.Catalog.RefreshInterval,
		Cooldown: a.cfg.Catalog.SignalCooldown,
	}, a.metrics)

	if err := refresher.Load(ctx); err != nil {
		log.Fatalln("Failed to load currency catalog", "error", err)
	}

	go func() {
		if err := refresher.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Catalog refresher stopped", "error", err)
		}
	}()

	return currencies, refresher
}

func (a *ApiApp) initService(rateCache *memory.Cache, provider *exchangehost.HTTPClient, currencies *catalog.Catalog, publisher service.RefreshPublisher) *service.Service {
	apiService, err := service.NewService(rateCache, provider, currencies, publisher)
	if err != nil {
		log.Fatalln("Failed to initialize service rate", "error", err)
	}

	return apiService
}

func (a *ApiApp) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
