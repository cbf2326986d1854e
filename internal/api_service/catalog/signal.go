package catalog

import (
	"context"

	"github.com/langowen/exchange-rates/internal/entities"
)

// LocalSignal delivers refresh signals inside one process. Publishing never
// blocks: while a signal is pending, new ones are dropped.
type LocalSignal struct {
	ch chan entities.RefreshSignal
}

func NewLocalSignal() *LocalSignal {
	return &LocalSignal{ch: make(chan entities.RefreshSignal, 1)}
}

func (s *LocalSignal) Publish(_ context.Context, signal entities.RefreshSignal) error {
	select {
	case s.ch <- signal:
	default:
	}

	return nil
}

func (s *LocalSignal) Subscribe(_ context.Context) (<-chan entities.RefreshSignal, error) {
	return s.ch, nil
}
