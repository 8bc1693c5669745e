package eventsink

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/fourthcoffee/fc-commerce/internal/config"
)

func batchOf(values ...string) []Message {
	out := make([]Message, len(values))
	for i, v := range values {
		out[i] = Message{Key: "shop-001", Value: []byte(v)}
	}
	return out
}

func TestConsoleSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewConsoleSink(&buf)

	if err := sink.Send(context.Background(), batchOf(`{"id":"txn-1"}`, `{"id":"txn-2"}`)); err != nil {
		t.Fatalf("Send error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[1] != `{"id":"txn-2"}` {
		t.Errorf("Unexpected second line %q", lines[1])
	}
	if sink.Name() != "console" {
		t.Errorf("Expected name 'console', got '%s'", sink.Name())
	}
}

func TestFileSinkAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tx.jsonl")

	for i := 0; i < 2; i++ {
		sink, err := NewFileSink(path)
		if err != nil {
			t.Fatalf("NewFileSink error: %v", err)
		}
		if err := sink.Send(context.Background(), batchOf(`{"n":1}`)); err != nil {
			t.Fatalf("Send error: %v", err)
		}
		if err := sink.Close(); err != nil {
			t.Fatalf("Close error: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if got := strings.Count(string(data), "\n"); got != 2 {
		t.Errorf("Expected 2 appended lines, got %d", got)
	}
}

func TestNewUnknownSink(t *testing.T) {
	cfg := config.DefaultConfig().Stream
	cfg.Sink = "pigeon"
	if _, err := New(context.Background(), cfg); err == nil {
		t.Error("Expected error for unknown sink")
	}
}

func TestParseEventHubConnection(t *testing.T) {
	conn, err := ParseEventHubConnection(
		"Endpoint=sb://es-ns.servicebus.windows.net/;SharedAccessKeyName=key_1;SharedAccessKey=abc=;EntityPath=es_1234")
	if err != nil {
		t.Fatalf("ParseEventHubConnection error: %v", err)
	}
	if conn.Namespace != "es-ns.servicebus.windows.net" {
		t.Errorf("Unexpected namespace %s", conn.Namespace)
	}
	if conn.Broker() != "es-ns.servicebus.windows.net:9093" {
		t.Errorf("Unexpected broker %s", conn.Broker())
	}
	if conn.EntityPath != "es_1234" || conn.KeyName != "key_1" || conn.Key != "abc=" {
		t.Errorf("Unexpected parse result %+v", conn)
	}

	if _, err := ParseEventHubConnection("SharedAccessKey=abc"); err == nil {
		t.Error("Expected error without Endpoint")
	}
}

func TestKafkaSinkSend(t *testing.T) {
	producer := newMockProducer(t)
	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		if string(val) != `{"id":"txn-1"}` {
			return errors.New("unexpected payload " + string(val))
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()

	sink := newKafkaSink(producer, "pos-transactions")
	if err := sink.Send(context.Background(), batchOf(`{"id":"txn-1"}`, `{"id":"txn-2"}`)); err != nil {
		t.Fatalf("Send error: %v", err)
	}
	if sink.Name() != "kafka:pos-transactions" {
		t.Errorf("Unexpected name %s", sink.Name())
	}
	if err := sink.Close(); err != nil {
		t.Errorf("Close error: %v", err)
	}
}

func TestKafkaSinkSendFailure(t *testing.T) {
	producer := newMockProducer(t)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	sink := newKafkaSink(producer, "pos-transactions")
	err := sink.Send(context.Background(), batchOf(`{}`))
	if err == nil {
		t.Fatal("Expected send failure")
	}
	_ = sink.Close()
}

func TestKafkaSinkCancelled(t *testing.T) {
	producer := newMockProducer(t)
	sink := newKafkaSink(producer, "t")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Send(ctx, batchOf(`{}`)); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	_ = sink.Close()
}

func TestAMQPPublishing(t *testing.T) {
	now := time.Date(2025, 10, 21, 8, 0, 0, 0, time.UTC)
	p := publishing(Message{Key: "shop-007", Value: []byte(`{"a":1}`)}, now)

	if p.ContentType != "application/json" {
		t.Errorf("Expected JSON content type, got %s", p.ContentType)
	}
	if p.DeliveryMode != amqp.Persistent {
		t.Errorf("Expected persistent delivery")
	}
	if p.Headers["partitionKey"] != "shop-007" {
		t.Errorf("Expected partitionKey header, got %v", p.Headers)
	}
	if !p.Timestamp.Equal(now) || string(p.Body) != `{"a":1}` {
		t.Errorf("Unexpected publishing %+v", p)
	}
}

func newMockProducer(t *testing.T) *mocks.SyncProducer {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	return mocks.NewSyncProducer(t, cfg)
}
