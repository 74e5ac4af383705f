package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/config"
)

const kafkaPollTimeoutMs = 100

// KafkaBridge consumes the ingest topic with a consumer group
type KafkaBridge struct {
	consumer *kafka.Consumer
	topic    string
	handler  Handler
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewKafkaBridge creates the consumer; polling starts with the fx app
func NewKafkaBridge(cfg config.KafkaConfig, handler Handler, logger *zap.Logger) (*KafkaBridge, error) {
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"group.id":          cfg.ConsumerGroup,
		"auto.offset.reset": "earliest",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &KafkaBridge{
		consumer: consumer,
		topic:    cfg.Topic,
		handler:  handler,
		logger:   logger,
	}, nil
}

// Start subscribes and polls in a goroutine until ctx is cancelled
func (b *KafkaBridge) Start(ctx context.Context) error {
	if err := b.consumer.SubscribeTopics([]string{b.topic}, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", b.topic, err)
	}

	b.logger.Info("kafka bridge started", zap.String("topic", b.topic))

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				b.handleEvent(ctx, b.consumer.Poll(kafkaPollTimeoutMs))
			}
		}
	}()
	return nil
}

func (b *KafkaBridge) handleEvent(ctx context.Context, ev kafka.Event) {
	switch e := ev.(type) {
	case nil:
	case *kafka.Message:
		if err := b.handler(ctx, e.Value); err != nil {
			b.logger.Error("failed to ingest kafka message",
				zap.Error(err),
				zap.String("topic", b.topic),
				zap.String("offset", e.TopicPartition.Offset.String()),
			)
		}
	case kafka.Error:
		b.logger.Error("kafka error", zap.Error(e), zap.Bool("fatal", e.IsFatal()))
	default:
		b.logger.Debug("ignored kafka event", zap.String("event", e.String()))
	}
}

// RegisterLifecycle runs the poll loop for the lifetime of the fx app
func (b *KafkaBridge) RegisterLifecycle(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			b.cancel = cancel
			return b.Start(ctx)
		},
		OnStop: func(context.Context) error {
			if b.cancel != nil {
				b.cancel()
			}
			b.wg.Wait()
			if err := b.consumer.Close(); err != nil {
				b.logger.Error("failed to close kafka consumer", zap.Error(err))
				return err
			}
			b.logger.Info("kafka bridge stopped")
			return nil
		},
	})
}
