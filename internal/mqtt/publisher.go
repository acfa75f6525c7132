// Package mqtt publishes fix snapshots to a broker so loggers and home
// automation can follow the receiver without listening to the UDP feed.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Config struct {
	// Broker is a paho URL such as tcp://127.0.0.1:1883.
	Broker string

	// Topic receives one JSON snapshot per publish.
	Topic string

	// ClientID defaults to tinygpsd- plus a random UUID.
	ClientID string

	// Retain marks published snapshots so late subscribers get the most
	// recent fix immediately.
	Retain bool
}

// mqttClient is the subset of pahomqtt.Client the publisher needs; tests
// inject fakes through newPublisher.
type mqttClient interface {
	Connect() pahomqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	cfg    Config
	log    *zap.Logger
	client mqttClient
}

func New(cfg Config, logger *zap.Logger) *Publisher {
	if cfg.Topic == "" {
		cfg.Topic = "tinygps/fix"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "tinygpsd-" + uuid.NewString()
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	return newPublisher(cfg, logger, pahomqtt.NewClient(opts))
}

func newPublisher(cfg Config, logger *zap.Logger, client mqttClient) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{cfg: cfg, log: logger, client: client}
}

func (p *Publisher) Connect() error {
	token := p.client.Connect()
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	p.log.Info("mqtt connected",
		zap.String("broker", p.cfg.Broker),
		zap.String("topic", p.cfg.Topic),
		zap.String("client_id", p.cfg.ClientID))
	return nil
}

// Publish marshals v and hands it to the broker. Delivery is checked on a
// separate goroutine so a slow broker cannot stall the caller, which runs on
// the decoder's read loop.
func (p *Publisher) Publish(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("mqtt marshal: %w", err)
	}

	token := p.client.Publish(p.cfg.Topic, 0, p.cfg.Retain, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			p.log.Warn("mqtt publish failed",
				zap.String("topic", p.cfg.Topic),
				zap.Error(err))
		}
	}()
	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
