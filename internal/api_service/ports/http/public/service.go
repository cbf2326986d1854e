package public

import (
	"context"

	"github.com/langowen/exchange-rates/internal/api_service/service"
	"github.com/langowen/exchange-rates/internal/entities"
)

type Service interface {
	ResolveOne(ctx context.Context, base, quote string, opts ...service.Option) (float64, error)
	ResolveMany(ctx context.Context, base string, quotes []string, opts ...service.Option) (map[string]float64, error)
	ResolveAll(ctx context.Context, base string, opts ...service.Option) (map[string]float64, error)
}

type CacheManager interface {
	Entries() (map[entities.RateKey]float64, error)
	Keys() ([]entities.RateKey, error)
	Lookup(key entities.RateKey) (float64, error)
	Delete(key entities.RateKey) error
	Clear() error
	Statistics() (entities.CacheStatistics, error)
	Details() (entities.CacheDetails, error)
}

type Currencies interface {
	List() []entities.Currency
}

type Refresher interface {
	Refresh(ctx context.Context) error
}
