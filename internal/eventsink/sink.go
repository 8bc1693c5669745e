//-------------------------------------------------------------------------
//
// Fourth Coffee Commerce Lab
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package eventsink delivers batches of JSON events to a stream.
package eventsink

import (
	"context"
	"fmt"
	"os"

	"github.com/fourthcoffee/fc-commerce/internal/config"
)

// Message is one event. Value is a self-contained JSON document.
type Message struct {
	Key   string
	Value []byte
}

// Sink sends batches of messages. A batch is delivered as a unit where the
// transport supports it.
type Sink interface {
	Send(ctx context.Context, batch []Message) error
	Close() error
	Name() string
}

// New creates the sink selected by cfg.Sink.
func New(ctx context.Context, cfg config.StreamConfig) (Sink, error) {
	switch cfg.Sink {
	case config.SinkConsole, "":
		return NewConsoleSink(os.Stdout), nil
	case config.SinkFile:
		return NewFileSink(cfg.File.Path)
	case config.SinkKafka:
		return NewKafkaSink(cfg.Kafka)
	case config.SinkAMQP:
		return NewAMQPSink(ctx, cfg.AMQP)
	default:
		return nil, fmt.Errorf("unknown sink: %s", cfg.Sink)
	}
}
