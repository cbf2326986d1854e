package kafka

import (
	"context"
	"testing"

	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	signal := entities.NewRefreshSignal("EUR", []string{"AMD", "XDR"})

	msg, err := encode(signal)
	require.NoError(t, err)
	assert.Equal(t, []byte("EUR"), msg.Key)

	got, err := decode(msg)
	require.NoError(t, err)
	assert.Equal(t, signal.ID, got.ID)
	assert.Equal(t, signal.Codes, got.Codes)
	assert.True(t, signal.RequestedAt.Equal(got.RequestedAt))
}

func TestDecode_Malformed(t *testing.T) {
	_, err := decode(kafka.Message{Value: []byte("nope")})

	assert.Error(t, err)
}

func TestNewBroker(t *testing.T) {
	_, err := NewBroker(Config{})
	assert.Error(t, err)

	b, err := NewBroker(Config{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.Equal(t, DefaultTopic, b.cfg.Topic)

	_, err = b.Subscribe(context.Background())
	assert.Error(t, err, "group id is required for subscribing")
	assert.NoError(t, b.Close())
}
