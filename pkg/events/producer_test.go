package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/repair_shop/pkg/logging"
)

func TestMemory_RecordsInOrder(t *testing.T) {
	var m Memory
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, TopicAccounts, "1", New("account_registered", map[string]any{"id": 1})))
	require.NoError(t, m.Publish(ctx, TopicCatalog, "9", New("model_created", nil)))
	require.NoError(t, m.Publish(ctx, TopicCatalog, "9", New("model_updated", nil)))

	assert.Len(t, m.Events(), 3)
	assert.Equal(t, []string{"model_created", "model_updated"}, m.Types(TopicCatalog))
	assert.Equal(t, []string{"account_registered"}, m.Types(TopicAccounts))
}

func TestEventEnvelope_JSON(t *testing.T) {
	ev := New("product_deleted", map[string]int{"id": 3})
	raw, err := json.Marshal(ev)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "product_deleted", got["type"])
	assert.Contains(t, got, "occurred_at")
	assert.Equal(t, map[string]any{"id": float64(3)}, got["payload"])
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), TopicCatalog, "k", nil))
}

func TestProducer_PublishIsBoundedBySilentBroker(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	var conns []net.Conn
	var mu sync.Mutex
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	t.Cleanup(func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	p := NewProducer([]string{ln.Addr().String()}, logging.Discard())
	p.timeout = 200 * time.Millisecond
	t.Cleanup(func() { _ = p.Close() })

	start := time.Now()
	err = p.Publish(context.Background(), TopicCatalog, "1", New("model_created", nil))
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestProducer_CompletionLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	p := NewProducer([]string{"127.0.0.1:9092"}, logging.NewWithWriter(&buf, "info"))

	p.completion([]kafka.Message{{Topic: TopicAccounts, Key: []byte("7")}}, nil)
	assert.Empty(t, buf.String())

	p.completion([]kafka.Message{{Topic: TopicAccounts, Key: []byte("7")}}, errors.New("broker down"))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kafka_publish_error", line["msg"])
	assert.Equal(t, TopicAccounts, line["topic"])
	assert.Equal(t, "7", line["key"])
	assert.Equal(t, "broker down", line["error"])
}
