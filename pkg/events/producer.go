package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicAccounts = "account_events"
	TopicCatalog  = "catalog_events"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

// Event is the envelope every message carries.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

func New(eventType string, payload any) Event {
	return Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
}

// DefaultPublishTimeout bounds the synchronous part of Publish (topic metadata
// lookup and enqueue). Delivery itself happens in the background.
const DefaultPublishTimeout = 2 * time.Second

// Producer writes asynchronously; delivery failures are logged, not returned.
type Producer struct {
	writer  *kafka.Writer
	logger  *slog.Logger
	timeout time.Duration
}

func NewProducer(brokers []string, logger *slog.Logger) *Producer {
	p := &Producer{logger: logger, timeout: DefaultPublishTimeout}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
		Async:                  true,
		Completion:             p.completion,
		AllowAutoTopicCreation: true,
	}
	return p
}

func (p *Producer) completion(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		p.logger.Error("kafka_publish_error", "topic", m.Topic, "key", string(m.Key), "error", err)
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: data}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// EnsureTopics creates missing topics through the cluster controller.
func EnsureTopics(broker string, topics ...string) error {
	conn, err := kafka.Dial("tcp", broker)
	if err != nil {
		return fmt.Errorf("kafka: dial %s: %w", broker, err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka: controller: %w", err)
	}
	cc, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("kafka: dial controller: %w", err)
	}
	defer cc.Close()

	cfgs := make([]kafka.TopicConfig, 0, len(topics))
	for _, t := range topics {
		cfgs = append(cfgs, kafka.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1})
	}
	return cc.CreateTopics(cfgs...)
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

type Published struct {
	Topic string
	Key   string
	Event any
}

// Memory records events in process. Used by tests.
type Memory struct {
	mu     sync.Mutex
	events []Published
}

func (m *Memory) Publish(_ context.Context, topic, key string, event any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Published{Topic: topic, Key: key, Event: event})
	return nil
}

func (m *Memory) Events() []Published {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Published(nil), m.events...)
}

// Types returns the event types recorded for topic, in order.
func (m *Memory) Types(topic string) []string {
	var out []string
	for _, p := range m.Events() {
		if p.Topic != topic {
			continue
		}
		if ev, ok := p.Event.(Event); ok {
			out = append(out, ev.Type)
		}
	}
	return out
}
