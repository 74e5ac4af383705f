package bridge

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/septivank/rnsync-vitals/internal/config"
)

const (
	mqttQoS             = 1
	mqttConnectTimeout  = 10 * time.Second
	mqttDisconnectQuiet = 250 // ms
)

// MQTTBridge subscribes to the ingest topic on an MQTT broker
type MQTTBridge struct {
	client mqtt.Client
	topic  string
	logger *zap.Logger
}

// NewMQTTBridge builds the client; it connects when the fx app starts
func NewMQTTBridge(cfg config.MQTTConfig, handler Handler, logger *zap.Logger) *MQTTBridge {
	b := &MQTTBridge{topic: cfg.Topic, logger: logger}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetDefaultPublishHandler(NewMQTTMessageHandler(handler, logger))
	// subscribe on every connect so reconnects restore the subscription
	opts.OnConnect = b.subscribe
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", zap.Error(err))
	}

	b.client = mqtt.NewClient(opts)
	return b
}

// NewMQTTMessageHandler adapts handler to a paho message callback
func NewMQTTMessageHandler(handler Handler, logger *zap.Logger) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		logger.Debug("received mqtt message",
			zap.String("topic", msg.Topic()),
			zap.Int("body_size", len(msg.Payload())),
		)
		if err := handler(context.Background(), msg.Payload()); err != nil {
			logger.Error("failed to ingest mqtt message",
				zap.Error(err),
				zap.String("topic", msg.Topic()),
			)
		}
	}
}

func (b *MQTTBridge) subscribe(client mqtt.Client) {
	b.logger.Info("connected to mqtt broker")
	token := client.Subscribe(b.topic, mqttQoS, nil)
	if !token.WaitTimeout(mqttConnectTimeout) {
		b.logger.Error("mqtt subscribe timed out", zap.String("topic", b.topic))
		return
	}
	if err := token.Error(); err != nil {
		b.logger.Error("mqtt subscribe failed", zap.Error(err), zap.String("topic", b.topic))
		return
	}
	b.logger.Info("subscribed to mqtt topic", zap.String("topic", b.topic))
}

// RegisterLifecycle connects with the fx app and disconnects on shutdown
func (b *MQTTBridge) RegisterLifecycle(lc fx.Lifecycle) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			token := b.client.Connect()
			if !token.WaitTimeout(mqttConnectTimeout) {
				return fmt.Errorf("mqtt connect timed out after %s", mqttConnectTimeout)
			}
			if err := token.Error(); err != nil {
				return fmt.Errorf("failed to connect to mqtt broker: %w", err)
			}
			return nil
		},
		OnStop: func(context.Context) error {
			b.client.Disconnect(mqttDisconnectQuiet)
			b.logger.Info("mqtt bridge stopped")
			return nil
		},
	})
}
