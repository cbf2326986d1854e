package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Currency struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// NormalizeCode trims and upper-cases a user supplied currency code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// RefreshSignal asks the catalog to re-sync because the provider returned
// codes it does not know yet.
type RefreshSignal struct {
	ID          uuid.UUID `json:"id"`
	Base        string    `json:"base"`
	Codes       []string  `json:"codes"`
	RequestedAt time.Time `json:"requested_at"`
}

func NewRefreshSignal(base string, codes []string) RefreshSignal {
	return RefreshSignal{
		ID:          uuid.New(),
		Base:        base,
		Codes:       codes,
		RequestedAt: time.Now().UTC(),
	}
}
