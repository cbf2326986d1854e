package entities

import (
	"fmt"
	"strings"
	"time"
)

const rateKeySeparator = "_"

// RateKey identifies a cached rate: quote units per one base unit.
type RateKey struct {
	Base  string
	Quote string
}

func NewRateKey(base, quote string) RateKey {
	return RateKey{Base: base, Quote: quote}
}

func (k RateKey) String() string {
	return k.Base + rateKeySeparator + k.Quote
}

// ParseRateKey accepts the canonical "BASE_QUOTE" form.
func ParseRateKey(s string) (RateKey, error) {
	base, quote, ok := strings.Cut(strings.ToUpper(strings.TrimSpace(s)), rateKeySeparator)
	if !ok || base == "" || quote == "" || strings.Contains(quote, rateKeySeparator) {
		return RateKey{}, fmt.Errorf("malformed rate key %q", s)
	}

	return RateKey{Base: base, Quote: quote}, nil
}

// CacheStatistics is a lifetime snapshot. Evictions counts entries dropped
// for capacity or TTL; Delete and Clear are not evictions.
type CacheStatistics struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

type CacheDetails struct {
	Enabled  bool          `json:"enabled"`
	Capacity int           `json:"capacity"`
	TTL      time.Duration `json:"ttl"`
	Size     int           `json:"size"`
}
