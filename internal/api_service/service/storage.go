package service

import (
	"context"

	"github.com/langowen/exchange-rates/internal/entities"
)

//go:generate mockgen -source=storage.go -destination=mocks/storage.go -package=mocks

type RateCache interface {
	Get(key entities.RateKey) (float64, bool, error)
	Put(key entities.RateKey, rate float64) error
}

type CurrencyCatalog interface {
	Exists(code string) bool
	Resolve(code string) (string, bool)
	Codes() []string
}

type RateProvider interface {
	FetchRates(ctx context.Context, base string, quotes []string) (map[string]float64, error)
}

type RefreshPublisher interface {
	Publish(ctx context.Context, signal entities.RefreshSignal) error
}
