package pusher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"evstation/internal"
	"evstation/internal/config"
	"evstation/power"
	"evstation/utility"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Client is the part of the paho client the pusher needs.
type Client interface {
	IsConnected() bool
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MessagePusher forwards effective limits and the link state to the local
// power electronics over MQTT.
type MessagePusher struct {
	client Client
	prefix string
	qos    byte
	logger internal.LogHandler
}

func NewPusher(conf *config.Config, logger internal.LogHandler) (*MessagePusher, error) {
	if !conf.Mqtt.Enabled {
		return nil, nil
	}
	if conf.Mqtt.Broker == "" {
		return nil, utility.Err("missed broker parameter in MQTT configuration")
	}
	if conf.Mqtt.TopicPrefix == "" {
		return nil, utility.Err("missed topic_prefix parameter in MQTT configuration")
	}
	if logger == nil {
		logger = internal.NopLogger{}
	}
	opts := mqtt.NewClientOptions().
		AddBroker(conf.Mqtt.Broker).
		SetClientID(conf.Mqtt.ClientId).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Error("mqtt connection lost", err)
		})
	if conf.Mqtt.Username != "" {
		opts.SetUsername(conf.Mqtt.Username)
		opts.SetPassword(conf.Mqtt.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connecting to mqtt broker: %w", token.Error())
	}
	logger.FeatureEvent("Pusher", "", fmt.Sprintf("connected to %s", conf.Mqtt.Broker))
	return newPusher(client, conf.Mqtt.TopicPrefix, conf.Mqtt.Qos, logger), nil
}

func newPusher(client Client, prefix string, qos byte, logger internal.LogHandler) *MessagePusher {
	return &MessagePusher{
		client: client,
		prefix: prefix,
		qos:    qos,
		logger: logger,
	}
}

func (p *MessagePusher) Send(msg Message) error {
	if !p.client.IsConnected() {
		return utility.Err("mqtt client not connected")
	}
	token := p.client.Publish(msg.path(p.prefix), p.qos, msg.Retained, msg.Payload)
	if !token.WaitTimeout(5 * time.Second) {
		return utility.Err(fmt.Sprintf("publish to %s timed out", msg.path(p.prefix)))
	}
	return token.Error()
}

// PublishLimit makes the pusher a power.LimitSink. Limits are retained so a
// controller that restarts picks up the current value.
func (p *MessagePusher) PublishLimit(limit power.EffectiveLimit) error {
	data, err := json.Marshal(limit)
	if err != nil {
		return err
	}
	return p.Send(Message{
		Topic:    Limit,
		Key:      strconv.Itoa(limit.EvseId),
		Payload:  data,
		Retained: true,
	})
}

func (p *MessagePusher) PublishConnection(connected bool) {
	data, _ := json.Marshal(map[string]interface{}{
		"connected": connected,
		"time":      time.Now().UTC(),
	})
	if err := p.Send(Message{Topic: Connection, Payload: data, Retained: true}); err != nil {
		p.logger.Error("publishing connection state", err)
	}
}

func (p *MessagePusher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
