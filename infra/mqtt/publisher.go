package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kilianp07/homemind/core/events"
	coremqtt "github.com/kilianp07/homemind/core/mqtt"
	"github.com/kilianp07/homemind/infra/logger"
	"github.com/kilianp07/homemind/internal/eventbus"
)

// EventPublisher forwards bus events to MQTT as JSON.
//
// Topics:
//   - <prefix>/<device>/dispatch for events.DispatchEvent
//   - <prefix>/<device>/monitor for events.MonitorEvent
type EventPublisher struct {
	pub    coremqtt.Publisher
	prefix string
	log    logger.Logger
}

// NewEventPublisher returns a publisher writing under prefix.
func NewEventPublisher(pub coremqtt.Publisher, prefix string, log logger.Logger) *EventPublisher {
	if log == nil {
		log = logger.NopLogger{}
	}
	if prefix == "" {
		prefix = "homemind"
	}
	return &EventPublisher{pub: pub, prefix: prefix, log: log}
}

// Start subscribes to bus and publishes until ctx is done or the bus is
// closed. The returned channel is closed on exit.
func (e *EventPublisher) Start(ctx context.Context, bus eventbus.EventBus) <-chan struct{} {
	done := make(chan struct{})
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := e.Handle(ev); err != nil {
					e.log.Warnf("mqtt event publish: %v", err)
				}
			}
		}
	}()
	return done
}

// Handle publishes a single event. Unknown event types are ignored.
func (e *EventPublisher) Handle(ev eventbus.Event) error {
	var topic string
	switch v := ev.(type) {
	case events.DispatchEvent:
		topic = e.topic(v.DeviceID, "dispatch")
	case events.MonitorEvent:
		topic = e.topic(v.DeviceID, "monitor")
	default:
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %T: %w", ev, err)
	}
	return e.pub.Publish(topic, payload)
}

func (e *EventPublisher) topic(device, kind string) string {
	return e.prefix + "/" + device + "/" + kind
}

// MockPublisher records published messages. It is used in tests.
type MockPublisher struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

// Message is one recorded publish.
type Message struct {
	Topic   string
	Payload []byte
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

// Publish records the message or returns the configured error.
func (m *MockPublisher) Publish(topic string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Messages = append(m.Messages, Message{Topic: topic, Payload: payload})
	return nil
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.Messages...)
}
