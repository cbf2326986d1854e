package catalog

import (
	"sort"
	"sync"

	"github.com/langowen/exchange-rates/internal/entities"
)

// Catalog is the in-memory set of supported currencies.
type Catalog struct {
	mu         sync.RWMutex
	currencies map[string]entities.Currency
}

func New(currencies ...entities.Currency) *Catalog {
	c := &Catalog{}
	c.Replace(currencies)

	return c
}

func (c *Catalog) Exists(code string) bool {
	_, ok := c.Resolve(code)
	return ok
}

// Resolve returns the canonical form of code when it is supported.
func (c *Catalog) Resolve(code string) (string, bool) {
	code = entities.NormalizeCode(code)

	c.mu.RLock()
	currency, ok := c.currencies[code]
	c.mu.RUnlock()

	return currency.Code, ok
}

// Codes returns the supported codes in sorted order.
func (c *Catalog) Codes() []string {
	c.mu.RLock()
	codes := make([]string, 0, len(c.currencies))
	for code := range c.currencies {
		codes = append(codes, code)
	}
	c.mu.RUnlock()

	sort.Strings(codes)

	return codes
}

func (c *Catalog) List() []entities.Currency {
	c.mu.RLock()
	list := make([]entities.Currency, 0, len(c.currencies))
	for _, currency := range c.currencies {
		list = append(list, currency)
	}
	c.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })

	return list
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.currencies)
}

// Replace swaps the whole set atomically.
func (c *Catalog) Replace(currencies []entities.Currency) {
	next := make(map[string]entities.Currency, len(currencies))
	for _, currency := range currencies {
		code := entities.NormalizeCode(currency.Code)
		if code == "" {
			continue
		}
		next[code] = entities.Currency{Code: code, Description: currency.Description}
	}

	c.mu.Lock()
	c.currencies = next
	c.mu.Unlock()
}
