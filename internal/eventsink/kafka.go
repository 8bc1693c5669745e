package eventsink

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/fourthcoffee/fc-commerce/internal/config"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
)

// eventHubsKafkaPort is the Kafka endpoint port of an Event Hubs namespace.
const eventHubsKafkaPort = "9093"

// KafkaSink produces to a Kafka topic or an Event Hubs-compatible endpoint.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// EventHubConnection is a parsed Event Hubs connection string.
type EventHubConnection struct {
	Namespace  string
	KeyName    string
	Key        string
	EntityPath string
	Raw        string
}

// ParseEventHubConnection parses
// Endpoint=sb://<ns>/;SharedAccessKeyName=..;SharedAccessKey=..;EntityPath=..
func ParseEventHubConnection(s string) (*EventHubConnection, error) {
	conn := &EventHubConnection{Raw: s}
	for _, part := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case "endpoint":
			u, err := url.Parse(value)
			if err != nil {
				return nil, fmt.Errorf("invalid event hub endpoint: %w", err)
			}
			conn.Namespace = u.Host
		case "sharedaccesskeyname":
			conn.KeyName = value
		case "sharedaccesskey":
			conn.Key = value
		case "entitypath":
			conn.EntityPath = value
		}
	}
	if conn.Namespace == "" {
		return nil, errors.New("event hub connection string has no Endpoint")
	}
	return conn, nil
}

// Broker returns the Kafka bootstrap address of the namespace.
func (c *EventHubConnection) Broker() string {
	return c.Namespace + ":" + eventHubsKafkaPort
}

// NewKafkaSink connects a synchronous producer.
func NewKafkaSink(cfg config.KafkaSinkConfig) (*KafkaSink, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Retry.Max = 5
	saramaConfig.Producer.Retry.Backoff = 100 * time.Millisecond
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	saramaConfig.Net.DialTimeout = 30 * time.Second
	saramaConfig.Net.ReadTimeout = 30 * time.Second
	saramaConfig.Net.WriteTimeout = 30 * time.Second
	saramaConfig.ClientID = "fc-commerce"

	brokers := cfg.Brokers
	topic := cfg.Topic

	if cfg.ConnectionString != "" {
		conn, err := ParseEventHubConnection(cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		brokers = []string{conn.Broker()}
		if conn.EntityPath != "" {
			topic = conn.EntityPath
		}
		saramaConfig.Version = sarama.V1_0_0_0
		saramaConfig.Net.TLS.Enable = true
		saramaConfig.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
		saramaConfig.Net.SASL.Enable = true
		saramaConfig.Net.SASL.Mechanism = sarama.SASLTypePlaintext
		saramaConfig.Net.SASL.User = "$ConnectionString"
		saramaConfig.Net.SASL.Password = cfg.ConnectionString
	}

	if topic == "" {
		return nil, errors.New("kafka sink requires a topic")
	}

	producer, err := sarama.NewSyncProducer(brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logging.Info().
		Strs("brokers", brokers).
		Str("topic", topic).
		Msg("Kafka producer created")

	return newKafkaSink(producer, topic), nil
}

func newKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// Send produces the batch in one request.
func (k *KafkaSink) Send(ctx context.Context, batch []Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msgs := make([]*sarama.ProducerMessage, len(batch))
	for i, m := range batch {
		msgs[i] = &sarama.ProducerMessage{
			Topic: k.topic,
			Value: sarama.ByteEncoder(m.Value),
			Headers: []sarama.RecordHeader{
				{Key: []byte("content-type"), Value: []byte("application/json")},
			},
		}
		if m.Key != "" {
			msgs[i].Key = sarama.StringEncoder(m.Key)
		}
	}
	if err := k.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("failed to send to topic %s: %w", k.topic, err)
	}
	return nil
}

// Close closes the producer.
func (k *KafkaSink) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}

// Name returns "kafka:<topic>".
func (k *KafkaSink) Name() string { return "kafka:" + k.topic }
