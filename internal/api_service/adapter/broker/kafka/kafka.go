package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/langowen/exchange-rates/internal/entities"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

const DefaultTopic = "currency-refresh"

type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Broker carries catalog refresh signals over a kafka topic. Every instance
// of the fetcher reads with the same consumer group, so a signal is handled
// once.
type Broker struct {
	cfg    Config
	writer *kafka.Writer
}

func NewBroker(cfg Config) (*Broker, error) {
	const op = "broker.kafka.NewBroker"

	if len(cfg.Brokers) == 0 {
		return nil, errors.Errorf("%s: no brokers configured", op)
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}

	return &Broker{
		cfg: cfg,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
	}, nil
}

func (b *Broker) Publish(ctx context.Context, signal entities.RefreshSignal) error {
	const op = "broker.kafka.Publish"

	msg, err := encode(signal)
	if err != nil {
		return errors.Wrap(err, op)
	}

	if err = b.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, op)
	}

	slog.Debug("refresh signal published", "topic", b.cfg.Topic, "id", signal.ID)

	return nil
}

// Subscribe starts a group reader. The returned channel is closed when ctx
// is done or the reader fails.
func (b *Broker) Subscribe(ctx context.Context) (<-chan entities.RefreshSignal, error) {
	const op = "broker.kafka.Subscribe"

	if b.cfg.GroupID == "" {
		return nil, errors.Errorf("%s: consumer group is required", op)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: b.cfg.Brokers,
		Topic:   b.cfg.Topic,
		GroupID: b.cfg.GroupID,
		MaxWait: time.Second,
	})

	out := make(chan entities.RefreshSignal)

	go func() {
		defer close(out)
		defer reader.Close()

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("kafka reader stopped", "op", op, "error", err)
				}
				return
			}

			signal, err := decode(msg)
			if err != nil {
				slog.Error("malformed refresh signal", "op", op, "offset", msg.Offset, "error", err)
				continue
			}

			select {
			case out <- signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (b *Broker) Close() error {
	return b.writer.Close()
}

func encode(signal entities.RefreshSignal) (kafka.Message, error) {
	value, err := json.Marshal(signal)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(signal.Base),
		Value: value,
		Time:  signal.RequestedAt,
	}, nil
}

func decode(msg kafka.Message) (entities.RefreshSignal, error) {
	var signal entities.RefreshSignal
	if err := json.Unmarshal(msg.Value, &signal); err != nil {
		return entities.RefreshSignal{}, err
	}

	return signal, nil
}
