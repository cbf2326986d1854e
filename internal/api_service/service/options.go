package service

import (
	"math"

	"github.com/langowen/exchange-rates/internal/entities"
)

type Options struct {
	amount float64
	scaled bool
}

type Option func(o *Options)

// WithAmount scales resolved rates by amount.
func WithAmount(amount float64) Option {
	return func(o *Options) {
		o.amount = amount
		o.scaled = true
	}
}

func newOptions(opts []Option) (Options, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	if o.scaled && (o.amount < 0 || math.IsNaN(o.amount) || math.IsInf(o.amount, 0)) {
		return o, entities.ErrInvalidAmount
	}

	return o, nil
}

// zero reports the amount == 0 fast path: no cache or provider access.
func (o Options) zero() bool {
	return o.scaled && o.amount == 0
}

func (o Options) scale(rate float64) float64 {
	if !o.scaled {
		return rate
	}

	return Convert(rate, o.amount)
}

func (o Options) scaleAll(rates map[string]float64) map[string]float64 {
	if !o.scaled {
		return rates
	}

	for code, rate := range rates {
		rates[code] = Convert(rate, o.amount)
	}

	return rates
}
