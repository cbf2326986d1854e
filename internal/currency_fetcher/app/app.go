package fetcherApp

import (
	"context"
	"log"
	"log/slog"

	"github.com/langowen/exchange-rates/deploy/config"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/api_client/exchangehost"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/broker/kafka"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/storage/postgres"
	"github.com/langowen/exchange-rates/internal/api_service/adapter/storage/redis"
	"github.com/langowen/exchange-rates/internal/api_service/catalog"
	"github.com/langowen/exchange-rates/internal/logger"
	redisPack "github.com/redis/go-redis/v9"
)

// FetcherApp keeps the shared currencies table in sync with the provider so
// api instances running with CATALOG_SYNC=false only read it.
type FetcherApp struct {
	cfg     *config.Config
	closers []func()
}

func NewFetcherApp(cfg *config.Config) *FetcherApp {
	return &FetcherApp{cfg: cfg}
}

func (f *FetcherApp) Start(ctx context.Context) <-chan struct{} {
	logger.Setup(f.cfg.Log.Level, f.cfg.Log.Format)
	slog.Info("Logger initialized")

	pgStorage := f.initDatabase(ctx)
	slog.Info("Storage initialized")

	provider := exchangehost.NewHTTPClient(exchangehost.Config{
		BaseURL:    f.cfg.Provider.URL,
		AccessKey:  f.cfg.Provider.AccessKey,
		Timeout:    f.cfg.Provider.Timeout,
		Attempts:   f.cfg.Provider.Attempts,
		RetryDelay: f.cfg.Provider.RetryDelay,
		RPS:        f.cfg.Provider.RPS,
		Burst:      f.cfg.Provider.Burst,
	}, nil)
	slog.Info("HTTP client initialized")

	subscriber := f.initSubscriber(ctx)

	refresher := catalog.NewRefresher(catalog.New(), provider, pgStorage, subscriber, catalog.RefresherConfig{
		Interval: f.cfg.Catalog.RefreshInterval,
		Cooldown: f.cfg.Catalog.SignalCooldown,
	}, nil)

	if err := refresher.Refresh(ctx); err != nil {
		slog.Error("Initial catalog sync failed", "error", err)
	}

	done := make(chan struct{})

	go func() {
		defer close(done)
		defer f.close()

		slog.Info("starting fetcher", "interval", f.cfg.Catalog.RefreshInterval, "signal", f.cfg.Catalog.Signal)

		if err := refresher.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("Failed to fetcher", "error", err)
		}
	}()

	return done
}

func (f *FetcherApp) initDatabase(ctx context.Context) *postgres.Storage {
	dsn := f.cfg.Storage.URL()

	if f.cfg.Storage.Migrate {
		if err := postgres.Migrate(dsn); err != nil {
			log.Fatalln("Failed to migrate PostgresSQL storage", "error", err)
		}
	}

	pgStorage, err := postgres.InitStorage(ctx, dsn, f.cfg.Storage.Timeout)
	if err != nil {
		log.Fatalln("Failed to initialize PostgresSQL storage", "error", err)
	}
	f.closers = append(f.closers, pgStorage.Close)

	return pgStorage
}

// initSubscriber returns nil for the local transport: in-process signals
// cannot reach a separate binary, so the worker relies on its interval.
func (f *FetcherApp) initSubscriber(ctx context.Context) catalog.Subscriber {
	switch f.cfg.Catalog.Signal {
	case config.SignalRedis:
		rdStorage, err := redis.InitStorage(ctx, &redisPack.Options{
			Addr:     f.cfg.Redis.Addr,
			Password: f.cfg.Redis.Password,
			DB:       f.cfg.Redis.DB,
		}, f.cfg.Redis.Channel)
		if err != nil {
			log.Fatalln("Failed to initialize Redis storage", "error", err)
		}
		f.closers = append(f.closers, func() { _ = rdStorage.Close() })
		slog.Info("Redis client initialized")

		return rdStorage

	case config.SignalKafka:
		broker, err := kafka.NewBroker(kafka.Config{
			Brokers: f.cfg.Kafka.Brokers,
			Topic:   f.cfg.Kafka.Topic,
			GroupID: f.cfg.Kafka.GroupID,
		})
		if err != nil {
			log.Fatalln("Failed to initialize Kafka broker", "error", err)
		}
		f.closers = append(f.closers, func() { _ = broker.Close() })
		slog.Info("Kafka broker initialized")

		return broker

	default:
		slog.Warn("local refresh signal is not visible to the fetcher, running on interval only")
		return nil
	}
}

func (f *FetcherApp) close() {
	for i := len(f.closers) - 1; i >= 0; i-- {
		f.closers[i]()
	}
}
