//go:build !tinygo

package link

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"cydtouch.dev/input"
)

// Publisher publishes frames to an MQTT topic.
type Publisher struct {
	client  client
	topic   string
	timeout time.Duration
	seq     uint32
}

// client is the subset of mqtt.Client used by Publisher.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Dial connects to broker, such as "tcp://localhost:1883".
func Dial(broker, clientID, topic string) (*Publisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	c := mqtt.NewClient(opts)
	if tok := c.Connect(); tok.Wait() && tok.Error() != nil {
		return nil, fmt.Errorf("link: mqtt %s: %w", broker, tok.Error())
	}
	return newPublisher(c, topic), nil
}

func newPublisher(c client, topic string) *Publisher {
	return &Publisher{
		client:  c,
		topic:   topic,
		timeout: time.Second,
	}
}

// Send publishes the event with QoS 0.
func (p *Publisher) Send(e input.Event) error {
	p.seq++
	payload, err := encMode.Marshal(frameOf(e, p.seq))
	if err != nil {
		return fmt.Errorf("link: %w", err)
	}
	tok := p.client.Publish(p.topic, 0, false, payload)
	if !tok.WaitTimeout(p.timeout) {
		return fmt.Errorf("link: mqtt publish to %s timed out", p.topic)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("link: mqtt: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
