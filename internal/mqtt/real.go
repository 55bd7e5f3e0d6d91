package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/ladder-game/internal/score"
)

// BufferSize is the number of messages held while disconnected.
const BufferSize = 100

const publishTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker. Publish calls never
// wait on the network: while disconnected, messages are buffered and
// replayed on the next connect, and delivery results are logged from a
// watcher goroutine.
type RealPublisher struct {
	client paho.Client
	now    func() time.Time

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool
	everUp    bool
	closing   bool

	inflight sync.WaitGroup
}

// NewRealPublisher starts connecting to broker. If no connection is made
// within connectTimeout the publisher is returned anyway and keeps retrying
// in the background.
func NewRealPublisher(broker, clientID string, connectTimeout time.Duration, now func() time.Time) *RealPublisher {
	p := &RealPublisher{
		now: now,
		buf: newRingBuffer(BufferSize),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload()), 1, true).
		SetOnConnectHandler(func(paho.Client) { p.onConnect() }).
		SetConnectionLostHandler(func(_ paho.Client, err error) { p.onConnectionLost(err) })

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		log.Printf("mqtt: no connection to %s after %v, retrying in background", broker, connectTimeout)
	} else if err := token.Error(); err != nil {
		log.Printf("mqtt: connect to %s: %v", broker, err)
	}

	return p
}

func (p *RealPublisher) onConnect() {
	p.mu.Lock()
	p.connected = true
	reconnect := p.everUp
	p.everUp = true
	pending := p.buf.drainAll()
	p.mu.Unlock()

	log.Printf("mqtt: connected, replaying %d buffered messages", len(pending))
	for _, m := range pending {
		p.send(m)
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: p.now(), Event: "RECONNECTED"})
		p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
	}
}

func (p *RealPublisher) onConnectionLost(err error) {
	p.mu.Lock()
	p.connected = false
	p.mu.Unlock()
	log.Printf("mqtt: connection lost: %v", err)
}

// IsConnected reports whether the client currently has a connection.
func (p *RealPublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// PublishScore sends a score with QoS 1, not retained.
func (p *RealPublisher) PublishScore(e score.Entry) error {
	payload, err := FormatScorePayload(e)
	if err != nil {
		return fmt.Errorf("format score payload: %w", err)
	}
	p.publish(bufferedMsg{topic: TopicScore, payload: payload, qos: 1})
	return nil
}

// PublishSystem sends a system lifecycle event with QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

func (p *RealPublisher) publish(m bufferedMsg) {
	p.mu.Lock()
	if !p.connected {
		p.buf.push(m)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.send(m)
}

func (p *RealPublisher) send(m bufferedMsg) {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		log.Printf("mqtt: publish to %s: publisher closing, dropped", m.topic)
		return
	}
	p.inflight.Add(1)
	p.mu.Unlock()

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	go func() {
		defer p.inflight.Done()
		if !token.WaitTimeout(publishTimeout) {
			log.Printf("mqtt: publish to %s: timeout", m.topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: publish to %s: %v", m.topic, err)
		}
	}()
}

// Close stops new sends, waits for in-flight publishes, then disconnects.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	p.closing = true
	if n := p.buf.len(); n > 0 {
		log.Printf("mqtt: closing with %d undelivered messages", n)
	}
	p.mu.Unlock()

	p.inflight.Wait()

	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
