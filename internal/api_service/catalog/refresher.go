package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/langowen/exchange-rates/internal/api_service/metrics"
	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/pkg/errors"
)

type SymbolsProvider interface {
	FetchSupportedCurrencies(ctx context.Context) (map[string]string, error)
}

type Store interface {
	ListCurrencies(ctx context.Context) ([]entities.Currency, error)
	SyncCurrencies(ctx context.Context, currencies []entities.Currency) (added, removed int, err error)
}

type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan entities.RefreshSignal, error)
}

type RefresherConfig struct {
	// Interval between scheduled refreshes; zero disables the schedule.
	Interval time.Duration
	// Cooldown is the minimum gap between signal-triggered refreshes.
	Cooldown time.Duration
}

// Refresher keeps the catalog in sync with the provider symbol list and,
// when a store is configured, with the persisted currency table.
type Refresher struct {
	catalog    *Catalog
	provider   SymbolsProvider
	store      Store
	subscriber Subscriber
	cfg        RefresherConfig
	metrics    *metrics.Metrics

	mu          sync.Mutex
	lastRefresh time.Time
}

// NewRefresher accepts nil provider, store or subscriber. Without a provider
// the catalog is reloaded from the store.
func NewRefresher(c *Catalog, provider SymbolsProvider, store Store, subscriber Subscriber, cfg RefresherConfig, m *metrics.Metrics) *Refresher {
	return &Refresher{
		catalog:    c,
		provider:   provider,
		store:      store,
		subscriber: subscriber,
		cfg:        cfg,
		metrics:    m,
	}
}

// Load fills the catalog at boot, preferring the store and falling back to
// a full refresh.
func (r *Refresher) Load(ctx context.Context) error {
	const op = "catalog.Load"

	if r.store != nil {
		currencies, err := r.store.ListCurrencies(ctx)
		switch {
		case err != nil:
			slog.Error("failed to load currencies from storage", "op", op, "error", err)
		case len(currencies) > 0:
			r.catalog.Replace(currencies)
			r.metrics.ObserveCatalogRefresh(nil, r.catalog.Len())
			slog.Info("currency catalog loaded from storage", "currencies", len(currencies))
			return nil
		}
	}

	if err := r.Refresh(ctx); err != nil {
		return errors.Wrap(err, op)
	}

	return nil
}

func (r *Refresher) Refresh(ctx context.Context) error {
	const op = "catalog.Refresh"

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.refresh(ctx)
	r.metrics.ObserveCatalogRefresh(err, r.catalog.Len())
	if err != nil {
		return errors.Wrap(err, op)
	}

	r.lastRefresh = time.Now()

	return nil
}

func (r *Refresher) refresh(ctx context.Context) error {
	if r.provider == nil {
		if r.store == nil {
			return errors.New("neither provider nor storage configured")
		}

		currencies, err := r.store.ListCurrencies(ctx)
		if err != nil {
			return err
		}

		r.catalog.Replace(currencies)
		slog.Info("currency catalog reloaded from storage", "currencies", len(currencies))
		return nil
	}

	slog.Info("fetching list of supported currencies from the rate provider")

	symbols, err := r.provider.FetchSupportedCurrencies(ctx)
	if err != nil {
		return err
	}

	currencies := make([]entities.Currency, 0, len(symbols))
	for code, description := range symbols {
		currencies = append(currencies, entities.Currency{Code: code, Description: description})
	}

	if r.store != nil {
		added, removed, err := r.store.SyncCurrencies(ctx, currencies)
		if err != nil {
			return err
		}
		slog.Info("currency storage synced", "added", added, "removed", removed)
	}

	r.catalog.Replace(currencies)
	slog.Info("currency catalog refreshed", "currencies", len(currencies))

	return nil
}

// Run refreshes on the configured interval and on every refresh signal until
// ctx is done.
func (r *Refresher) Run(ctx context.Context) error {
	const op = "catalog.Run"

	var signals <-chan entities.RefreshSignal
	if r.subscriber != nil {
		ch, err := r.subscriber.Subscribe(ctx)
		if err != nil {
			return errors.Wrap(err, op)
		}
		signals = ch
	}

	var tick <-chan time.Time
	if r.cfg.Interval > 0 {
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-tick:
			if err := r.Refresh(ctx); err != nil {
				slog.Error("scheduled catalog refresh failed", "op", op, "error", err)
			}

		case signal, ok := <-signals:
			if !ok {
				slog.Warn("refresh signal subscription closed", "op", op)
				signals = nil
				continue
			}

			if r.skip(signal) {
				slog.Debug("refresh signal skipped", "id", signal.ID, "codes", signal.Codes)
				continue
			}

			slog.Info("catalog refresh requested", "id", signal.ID, "base", signal.Base, "codes", signal.Codes)
			if err := r.Refresh(ctx); err != nil {
				slog.Error("requested catalog refresh failed", "op", op, "error", err)
			}

		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), op)
		}
	}
}

// skip drops signals that are already satisfied or arrive within the
// cooldown of the previous refresh.
func (r *Refresher) skip(signal entities.RefreshSignal) bool {
	if len(signal.Codes) > 0 {
		known := true
		for _, code := range signal.Codes {
			if !r.catalog.Exists(code) {
				known = false
				break
			}
		}
		if known {
			return true
		}
	}

	r.mu.Lock()
	last := r.lastRefresh
	r.mu.Unlock()

	return r.cfg.Cooldown > 0 && !last.IsZero() && time.Since(last) < r.cfg.Cooldown
}
