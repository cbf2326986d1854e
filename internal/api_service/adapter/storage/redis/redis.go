package redis

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"

	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "new_currency"

// Storage carries catalog refresh signals over a redis pub/sub channel.
type Storage struct {
	rdb     *redis.Client
	channel string
}

func NewStorage(client *redis.Client, channel string) *Storage {
	if channel == "" {
		channel = DefaultChannel
	}

	return &Storage{
		rdb:     client,
		channel: channel,
	}
}

func InitStorage(ctx context.Context, options *redis.Options, channel string) (*Storage, error) {
	const op = "storage.redis.InitStorage"

	redisClient := redis.NewClient(options)

	if _, err := redisClient.Ping(ctx).Result(); err != nil {
		_ = redisClient.Close()
		return nil, errors.Wrap(err, op)
	}

	return NewStorage(redisClient, channel), nil
}

func (s *Storage) Publish(ctx context.Context, signal entities.RefreshSignal) error {
	const op = "storage.redis.Publish"

	payload, err := json.Marshal(signal)
	if err != nil {
		return errors.Wrap(err, op)
	}

	if err := s.rdb.Publish(ctx, s.channel, payload).Err(); err != nil {
		return errors.Wrap(err, op)
	}

	slog.Debug("refresh signal published", "channel", s.channel, "id", signal.ID)

	return nil
}

// Subscribe returns a channel of decoded signals that is closed when ctx is
// done or the subscription drops.
func (s *Storage) Subscribe(ctx context.Context) (<-chan entities.RefreshSignal, error) {
	const op = "storage.redis.Subscribe"

	pubsub := s.rdb.Subscribe(ctx, s.channel)

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, errors.Wrap(classify(err), op)
	}

	out := make(chan entities.RefreshSignal)

	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}

				var signal entities.RefreshSignal
				if err := json.Unmarshal([]byte(msg.Payload), &signal); err != nil {
					slog.Error("malformed refresh signal", "op", op, "payload", msg.Payload, "error", err)
					continue
				}

				slog.Debug("Received message", "id", signal.ID, "codes", signal.Codes)

				select {
				case out <- signal:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}

func classify(err error) error {
	if errors.Is(err, context.Canceled) {
		return entities.ErrRedisCanceled
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entities.ErrRedisTimeout
	}

	return err
}
