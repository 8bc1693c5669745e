package pos

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/fourthcoffee/fc-commerce/internal/eventsink"
	"github.com/fourthcoffee/fc-commerce/internal/logging"
	"github.com/fourthcoffee/fc-commerce/internal/traffic"
)

// StreamerConfig controls the send loop.
type StreamerConfig struct {
	Interval  time.Duration
	BatchSize int
	MaxEvents int64
	DeviceID  string

	// Profile stretches Interval during quiet hours. Nil keeps it fixed.
	Profile traffic.Profile
}

// Stats summarises a streaming session.
type Stats struct {
	Sent       int64
	Failed     int64
	Batches    int64
	Replayed   int64
	StartTime  time.Time
	StopReason string
}

// Streamer drains a Generator into a Sink at a fixed interval.
type Streamer struct {
	gen   *Generator
	sink  eventsink.Sink
	cfg   StreamerConfig
	log   zerolog.Logger
	stats Stats
	now   func() time.Time
}

// NewStreamer creates a streamer.
func NewStreamer(gen *Generator, sink eventsink.Sink, cfg StreamerConfig) *Streamer {
	if cfg.Interval <= 0 {
		cfg.Interval = 3 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &Streamer{
		gen:  gen,
		sink: sink,
		cfg:  cfg,
		log:  logging.Component("pos").With().Str("device_id", cfg.DeviceID).Logger(),
		now:  time.Now,
	}
}

// Stats returns the counters collected so far.
func (s *Streamer) Stats() Stats {
	return s.stats
}

// Run sends batches until ctx is cancelled or MaxEvents transactions have
// been produced. Send failures are logged and counted and do not stop the
// loop. The first batch goes out immediately.
func (s *Streamer) Run(ctx context.Context) (Stats, error) {
	s.stats = Stats{StartTime: time.Now()}

	profile := traffic.DefaultProfile
	if s.cfg.Profile != nil {
		profile = s.cfg.Profile.Name()
	}

	s.log.Info().
		Str("sink", s.sink.Name()).
		Str("profile", profile).
		Dur("interval", s.cfg.Interval).
		Int("batch_size", s.cfg.BatchSize).
		Int64("max_events", s.cfg.MaxEvents).
		Msg("Starting transaction stream")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.stats.StopReason = "interrupted"
			s.logSummary()
			return s.stats, nil
		case <-timer.C:
		}

		batch, err := s.nextBatch()
		if err != nil {
			s.stats.StopReason = "generator error"
			s.logSummary()
			return s.stats, err
		}

		if len(batch) > 0 {
			s.send(ctx, batch)
		}

		if s.limitReached() {
			s.stats.StopReason = "max events reached"
			s.logSummary()
			return s.stats, nil
		}

		timer.Reset(s.nextInterval())
	}
}

func (s *Streamer) nextBatch() ([]eventsink.Message, error) {
	size := s.cfg.BatchSize
	if s.cfg.MaxEvents > 0 {
		remaining := s.cfg.MaxEvents - s.gen.Emitted()
		if remaining < int64(size) {
			size = int(remaining)
		}
	}

	batch := make([]eventsink.Message, 0, size)
	for i := 0; i < size; i++ {
		replaying := s.gen.Replaying()
		tx, err := s.gen.Next()
		if err != nil {
			return nil, err
		}
		if replaying {
			s.stats.Replayed++
		}
		value, err := json.Marshal(tx)
		if err != nil {
			return nil, fmt.Errorf("failed to encode transaction %s: %w", tx.TransactionID, err)
		}
		batch = append(batch, eventsink.Message{Key: tx.Key(), Value: value})
	}
	return batch, nil
}

func (s *Streamer) send(ctx context.Context, batch []eventsink.Message) {
	s.stats.Batches++
	if err := s.sink.Send(ctx, batch); err != nil {
		s.stats.Failed += int64(len(batch))
		s.log.Error().
			Err(err).
			Int("count", len(batch)).
			Msg("Failed to send transactions")
		return
	}
	s.stats.Sent += int64(len(batch))
	s.log.Info().
		Int("count", len(batch)).
		Int64("total", s.stats.Sent).
		Bool("replaying", s.gen.Replaying()).
		Msg("Sent transactions")
}

func (s *Streamer) nextInterval() time.Duration {
	if s.cfg.Profile == nil {
		return s.cfg.Interval
	}
	level := s.cfg.Profile.ActivityLevel(s.now())
	wait := traffic.Scale(s.cfg.Interval, level)
	s.log.Debug().
		Float64("activity", level).
		Dur("wait", wait).
		Msg("Next batch scheduled")
	return wait
}

func (s *Streamer) limitReached() bool {
	return s.cfg.MaxEvents > 0 && s.gen.Emitted() >= s.cfg.MaxEvents
}

func (s *Streamer) logSummary() {
	s.log.Info().
		Int64("sent", s.stats.Sent).
		Int64("failed", s.stats.Failed).
		Int64("replayed", s.stats.Replayed).
		Int64("batches", s.stats.Batches).
		Dur("elapsed", time.Since(s.stats.StartTime).Round(time.Millisecond)).
		Str("reason", s.stats.StopReason).
		Msg("Transaction stream stopped")
}
