package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/pkg/errors"
)

const defaultSignalTimeout = 5 * time.Second

// Service resolves exchange rates cache-aside: cached pairs are answered
// locally and every miss of a call is fetched with a single provider request.
type Service struct {
	cache     RateCache
	provider  RateProvider
	catalog   CurrencyCatalog
	publisher RefreshPublisher

	signalTimeout time.Duration
	pending       sync.WaitGroup
}

// NewService wires the resolver. publisher may be nil, in which case unknown
// provider codes are only logged.
func NewService(cache RateCache, provider RateProvider, catalog CurrencyCatalog, publisher RefreshPublisher) (*Service, error) {
	const op = "service.NewService"

	if cache == nil || provider == nil || catalog == nil {
		return nil, errors.Errorf("%s: cache, provider and catalog are required", op)
	}

	return &Service{
		cache:         cache,
		provider:      provider,
		catalog:       catalog,
		publisher:     publisher,
		signalTimeout: defaultSignalTimeout,
	}, nil
}

// ResolveOne returns the rate of base in quote units, scaled by the amount
// when WithAmount is given.
func (s *Service) ResolveOne(ctx context.Context, base, quote string, opts ...Option) (float64, error) {
	const op = "service.ResolveOne"

	o, err := newOptions(opts)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	base, err = s.validate(base)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	quote, err = s.validate(quote)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	if o.zero() {
		return 0, nil
	}

	if base == quote {
		return o.scale(1), nil
	}

	key := entities.NewRateKey(base, quote)
	if rate, ok := s.cached(key); ok {
		slog.Debug("rate served from cache", "key", key.String())
		return o.scale(rate), nil
	}

	rates, err := s.provider.FetchRates(ctx, base, []string{quote})
	if err != nil {
		return 0, errors.Wrap(err, op)
	}

	rate, ok := rates[quote]
	if !ok {
		missing := entities.Malformed(fmt.Errorf("rate for %s missing in provider response", quote))
		return 0, errors.Wrap(missing, op)
	}

	s.store(key, rate)

	return o.scale(rate), nil
}

// ResolveMany resolves base against every quote. Cache misses are fetched
// with exactly one provider call; a failure of that call fails the whole
// batch, cached hits included.
func (s *Service) ResolveMany(ctx context.Context, base string, quotes []string, opts ...Option) (map[string]float64, error) {
	const op = "service.ResolveMany"

	o, err := newOptions(opts)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	base, err = s.validate(base)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	codes := make([]string, 0, len(quotes))
	seen := make(map[string]struct{}, len(quotes))
	for _, q := range quotes {
		code, err := s.validate(q)
		if err != nil {
			return nil, errors.Wrap(err, op)
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	result := make(map[string]float64, len(codes))

	if o.zero() {
		for _, code := range codes {
			result[code] = 0
		}
		return result, nil
	}

	var misses []string
	for _, code := range codes {
		if code == base {
			result[code] = 1
			continue
		}

		if rate, ok := s.cached(entities.NewRateKey(base, code)); ok {
			result[code] = rate
			continue
		}

		misses = append(misses, code)
	}

	if len(misses) == 0 {
		slog.Debug("batch served from cache", "base", base, "quotes", len(codes))
		return o.scaleAll(result), nil
	}

	sort.Strings(misses)

	fetched, err := s.provider.FetchRates(ctx, base, misses)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	var unknown []string
	for code, rate := range fetched {
		canonical, ok := s.catalog.Resolve(code)
		if !ok {
			unknown = append(unknown, code)
			continue
		}

		result[canonical] = rate
		s.store(entities.NewRateKey(base, canonical), rate)
	}

	for _, code := range misses {
		if _, ok := result[code]; !ok {
			slog.Warn("provider returned no rate", "base", base, "quote", code)
		}
	}

	if len(unknown) > 0 {
		sort.Strings(unknown)
		s.requestRefresh(ctx, base, unknown)
	}

	return o.scaleAll(result), nil
}

// ResolveAll resolves base against every currency in the catalog.
func (s *Service) ResolveAll(ctx context.Context, base string, opts ...Option) (map[string]float64, error) {
	return s.ResolveMany(ctx, base, s.catalog.Codes(), opts...)
}

// Wait blocks until in-flight refresh signals are delivered.
func (s *Service) Wait() {
	s.pending.Wait()
}

func (s *Service) validate(code string) (string, error) {
	canonical, ok := s.catalog.Resolve(entities.NormalizeCode(code))
	if !ok {
		slog.Info("currency is not supported", "code", code)
		return "", entities.NewInvalidCurrency(code)
	}

	return canonical, nil
}

// cached treats an unavailable cache as a miss.
func (s *Service) cached(key entities.RateKey) (float64, bool) {
	rate, ok, err := s.cache.Get(key)
	if err != nil {
		if !errors.Is(err, entities.ErrCacheUnavailable) {
			slog.Error("rate cache read failed", "key", key.String(), "error", err)
		}
		return 0, false
	}

	return rate, ok
}

func (s *Service) store(key entities.RateKey, rate float64) {
	if err := s.cache.Put(key, rate); err != nil && !errors.Is(err, entities.ErrCacheUnavailable) {
		slog.Error("rate cache write failed", "key", key.String(), "error", err)
	}
}

// requestRefresh is fire-and-forget: delivery failures never reach the caller.
func (s *Service) requestRefresh(ctx context.Context, base string, codes []string) {
	slog.Info("provider returned currencies missing from the catalog", "base", base, "codes", codes)

	if s.publisher == nil {
		return
	}

	signal := entities.NewRefreshSignal(base, codes)

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.signalTimeout)
		defer cancel()

		if err := s.publisher.Publish(ctx, signal); err != nil {
			slog.Error("failed to publish catalog refresh signal", "id", signal.ID, "error", err)
		}
	}()
}
