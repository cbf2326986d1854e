package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	storage, err := InitStorage(context.Background(), &redis.Options{Addr: mr.Addr()}, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	return storage, mr
}

func TestStorage_PublishSubscribe(t *testing.T) {
	storage, _ := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals, err := storage.Subscribe(ctx)
	require.NoError(t, err)

	sent := entities.NewRefreshSignal("EUR", []string{"AMD"})
	require.NoError(t, storage.Publish(ctx, sent))

	select {
	case got := <-signals:
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, "EUR", got.Base)
		assert.Equal(t, []string{"AMD"}, got.Codes)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh signal not delivered")
	}

	cancel()
	assert.Eventually(t, func() bool {
		_, open := <-signals
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStorage_SkipsMalformedPayload(t *testing.T) {
	storage, mr := newTestStorage(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signals, err := storage.Subscribe(ctx)
	require.NoError(t, err)

	mr.Publish(DefaultChannel, "{not json")
	sent := entities.NewRefreshSignal("USD", []string{"XDR"})
	require.NoError(t, storage.Publish(ctx, sent))

	select {
	case got := <-signals:
		assert.Equal(t, sent.ID, got.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh signal not delivered")
	}
}

func TestInitStorage_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := InitStorage(context.Background(), &redis.Options{Addr: addr, MaxRetries: -1}, "")

	assert.Error(t, err)
}
