package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/langowen/exchange-rates/internal/api_service/adapter/cache/memory"
	"github.com/langowen/exchange-rates/internal/api_service/service"
	"github.com/langowen/exchange-rates/internal/api_service/service/mocks"
	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fakeCatalog map[string]bool

func newCatalog(codes ...string) fakeCatalog {
	c := fakeCatalog{}
	for _, code := range codes {
		c[code] = true
	}
	return c
}

func (c fakeCatalog) Exists(code string) bool {
	return c[code]
}

func (c fakeCatalog) Resolve(code string) (string, bool) {
	if !c[code] {
		return "", false
	}
	return code, true
}

func (c fakeCatalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	return codes
}

var catalog = newCatalog("EUR", "USD", "GBP", "JPY")

func newService(t *testing.T, cache service.RateCache, provider service.RateProvider, publisher service.RefreshPublisher) *service.Service {
	t.Helper()

	svc, err := service.NewService(cache, provider, catalog, publisher)
	require.NoError(t, err)

	return svc
}

func TestService_ResolveMany_CachesBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	cache := memory.New(memory.Options{})
	svc := newService(t, cache, provider, nil)
	ctx := context.Background()

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"GBP", "USD"}).
		Return(map[string]float64{"USD": 1.09, "GBP": 0.85}, nil).
		Times(1)

	first, err := svc.ResolveMany(ctx, "EUR", []string{"USD", "GBP"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1.09, "GBP": 0.85}, first)

	second, err := svc.ResolveMany(ctx, "EUR", []string{"USD", "GBP"})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestService_ResolveMany_FetchesOnlyMisses(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	cache := memory.New(memory.Options{})
	require.NoError(t, cache.Put(entities.NewRateKey("EUR", "USD"), 1.09))
	svc := newService(t, cache, provider, nil)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"GBP", "JPY"}).
		Return(map[string]float64{"GBP": 0.85, "JPY": 160}, nil).
		Times(1)

	rates, err := svc.ResolveMany(context.Background(), "EUR", []string{"usd", "GBP", "JPY", "GBP"}, service.WithAmount(2))

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 2.18, "GBP": 1.7, "JPY": 320}, rates)

	rate, err := cache.Lookup(entities.NewRateKey("EUR", "JPY"))
	require.NoError(t, err)
	assert.Equal(t, 160.0, rate)
}

func TestService_ResolveMany_AllHitsSkipsProvider(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	cache := memory.New(memory.Options{})
	require.NoError(t, cache.Put(entities.NewRateKey("EUR", "USD"), 1.5))
	require.NoError(t, cache.Put(entities.NewRateKey("EUR", "GBP"), 0.25))
	svc := newService(t, cache, provider, nil)

	rates, err := svc.ResolveMany(context.Background(), "EUR", []string{"USD", "GBP", "EUR"}, service.WithAmount(10))

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 15, "GBP": 2.5, "EUR": 10}, rates)
}

func TestService_ResolveMany_UnknownCodeSignalsRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	publisher := mocks.NewMockRefreshPublisher(ctrl)
	cache := memory.New(memory.Options{})
	svc := newService(t, cache, provider, publisher)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"USD"}).
		Return(map[string]float64{"AMD": 420.5, "USD": 1.09}, nil)

	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, signal entities.RefreshSignal) error {
			assert.Equal(t, "EUR", signal.Base)
			assert.Equal(t, []string{"AMD"}, signal.Codes)
			return nil
		}).
		Times(1)

	rates, err := svc.ResolveMany(context.Background(), "EUR", []string{"USD"})
	svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1.09}, rates)

	keys, err := cache.Keys()
	require.NoError(t, err)
	assert.Equal(t, []entities.RateKey{entities.NewRateKey("EUR", "USD")}, keys)
}

func TestService_ResolveMany_PublishFailureDoesNotFailCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	publisher := mocks.NewMockRefreshPublisher(ctrl)
	svc := newService(t, memory.New(memory.Options{}), provider, publisher)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"USD"}).
		Return(map[string]float64{"XXX": 1, "USD": 1.09}, nil)
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

	rates, err := svc.ResolveMany(context.Background(), "EUR", []string{"USD"})
	svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1.09}, rates)
}

func TestService_ResolveMany_UpstreamFailureFailsWholeBatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	cache := memory.New(memory.Options{})
	require.NoError(t, cache.Put(entities.NewRateKey("EUR", "USD"), 1.09))
	svc := newService(t, cache, provider, nil)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"GBP"}).
		Return(nil, &entities.UpstreamError{Reason: entities.UpstreamServerError, StatusCode: 502})

	rates, err := svc.ResolveMany(context.Background(), "EUR", []string{"USD", "GBP"})

	assert.Nil(t, rates)
	assert.ErrorIs(t, err, entities.ErrUpstream)
}

func TestService_ResolveOne_CachedScaled(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	cache := memory.New(memory.Options{})
	require.NoError(t, cache.Put(entities.NewRateKey("EUR", "USD"), 100))
	svc := newService(t, cache, provider, nil)

	value, err := svc.ResolveOne(context.Background(), "EUR", "USD", service.WithAmount(50))

	require.NoError(t, err)
	assert.Equal(t, 5000.0, value)
}

func TestService_ResolveOne_MissPopulatesCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	cache := memory.New(memory.Options{})
	svc := newService(t, cache, provider, nil)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"GBP"}).
		Return(map[string]float64{"GBP": 0.85}, nil).
		Times(1)

	rate, err := svc.ResolveOne(context.Background(), " eur", "gbp ")
	require.NoError(t, err)
	assert.Equal(t, 0.85, rate)

	cached, err := cache.Lookup(entities.NewRateKey("EUR", "GBP"))
	require.NoError(t, err)
	assert.Equal(t, rate, cached)

	again, err := svc.ResolveOne(context.Background(), "EUR", "GBP")
	require.NoError(t, err)
	assert.Equal(t, rate, again)
}

func TestService_ResolveOne_TimeoutLeavesCacheUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	cache := memory.New(memory.Options{})
	svc := newService(t, cache, provider, nil)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"USD"}).
		Return(nil, &entities.UpstreamError{Reason: entities.UpstreamUnreachable, Timeout: true})

	_, err := svc.ResolveOne(context.Background(), "EUR", "USD")

	var upErr *entities.UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, entities.UpstreamUnreachable, upErr.Reason)

	entries, err := cache.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_ResolveOne_MissingQuoteInResponse(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	svc := newService(t, memory.New(memory.Options{}), provider, nil)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"USD"}).
		Return(map[string]float64{"GBP": 0.85}, nil)

	_, err := svc.ResolveOne(context.Background(), "EUR", "USD")

	assert.ErrorIs(t, err, entities.ErrUpstream)
}

func TestService_InvalidCurrencyTouchesNothing(t *testing.T) {
	tests := []struct {
		name string
		call func(svc *service.Service) error
	}{
		{
			name: "one: invalid quote",
			call: func(svc *service.Service) error {
				_, err := svc.ResolveOne(context.Background(), "EUR", "ZZZ")
				return err
			},
		},
		{
			name: "one: invalid base",
			call: func(svc *service.Service) error {
				_, err := svc.ResolveOne(context.Background(), "ZZZ", "USD", service.WithAmount(0))
				return err
			},
		},
		{
			name: "many: one invalid quote aborts",
			call: func(svc *service.Service) error {
				_, err := svc.ResolveMany(context.Background(), "EUR", []string{"USD", "ZZZ", "GBP"})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			cache := mocks.NewMockRateCache(ctrl)
			provider := mocks.NewMockRateProvider(ctrl)
			svc := newService(t, cache, provider, nil)

			err := tt.call(svc)

			assert.ErrorIs(t, err, entities.ErrInvalidCurrency)
			var invalid *entities.InvalidCurrencyError
			require.True(t, errors.As(err, &invalid))
			assert.Equal(t, "ZZZ", invalid.Code)
		})
	}
}

func TestService_ZeroAmountShortCircuits(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockRateCache(ctrl)
	provider := mocks.NewMockRateProvider(ctrl)
	svc := newService(t, cache, provider, nil)

	value, err := svc.ResolveOne(context.Background(), "EUR", "USD", service.WithAmount(0))
	require.NoError(t, err)
	assert.Zero(t, value)

	values, err := svc.ResolveMany(context.Background(), "EUR", []string{"USD", "GBP"}, service.WithAmount(0))
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 0, "GBP": 0}, values)
}

func TestService_NegativeAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := newService(t, mocks.NewMockRateCache(ctrl), mocks.NewMockRateProvider(ctrl), nil)

	_, err := svc.ResolveOne(context.Background(), "EUR", "USD", service.WithAmount(-1))
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)

	_, err = svc.ResolveMany(context.Background(), "EUR", []string{"USD"}, service.WithAmount(-1))
	assert.ErrorIs(t, err, entities.ErrInvalidAmount)
}

func TestService_IdentityPair(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := newService(t, mocks.NewMockRateCache(ctrl), mocks.NewMockRateProvider(ctrl), nil)

	value, err := svc.ResolveOne(context.Background(), "EUR", "EUR", service.WithAmount(3))

	require.NoError(t, err)
	assert.Equal(t, 3.0, value)
}

func TestService_DisabledCacheGoesUpstream(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	svc := newService(t, memory.NewDisabled(), provider, nil)

	provider.EXPECT().
		FetchRates(gomock.Any(), "EUR", []string{"USD"}).
		Return(map[string]float64{"USD": 1.09}, nil).
		Times(2)

	for i := 0; i < 2; i++ {
		rate, err := svc.ResolveOne(context.Background(), "EUR", "USD")
		require.NoError(t, err)
		assert.Equal(t, 1.09, rate)
	}
}

func TestService_CacheErrorIsTreatedAsMiss(t *testing.T) {
	ctrl := gomock.NewController(t)
	cache := mocks.NewMockRateCache(ctrl)
	provider := mocks.NewMockRateProvider(ctrl)
	svc := newService(t, cache, provider, nil)

	key := entities.NewRateKey("EUR", "USD")
	cache.EXPECT().Get(key).Return(0.0, false, errors.New("corrupted"))
	provider.EXPECT().FetchRates(gomock.Any(), "EUR", []string{"USD"}).Return(map[string]float64{"USD": 1.09}, nil)
	cache.EXPECT().Put(key, 1.09).Return(nil)

	rate, err := svc.ResolveOne(context.Background(), "EUR", "USD")

	require.NoError(t, err)
	assert.Equal(t, 1.09, rate)
}

func TestService_ResolveAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockRateProvider(ctrl)
	svc := newService(t, memory.New(memory.Options{}), provider, nil)

	provider.EXPECT().
		FetchRates(gomock.Any(), "USD", []string{"EUR", "GBP", "JPY"}).
		Return(map[string]float64{"EUR": 0.92, "GBP": 0.78, "JPY": 150}, nil)

	rates, err := svc.ResolveAll(context.Background(), "USD")

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 1, "EUR": 0.92, "GBP": 0.78, "JPY": 150}, rates)
}

func TestNewService_RequiresDependencies(t *testing.T) {
	_, err := service.NewService(nil, nil, catalog, nil)
	assert.Error(t, err)
}

func TestConvert(t *testing.T) {
	assert.Equal(t, 5000.0, service.Convert(100, 50))
	assert.Zero(t, service.Convert(1.09, 0))
}
