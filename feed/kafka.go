// Package feed consumes per-region climate metrics from Kafka and queues
// them on the globe.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"climateglobe/core"
	"climateglobe/globe"
	"climateglobe/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Outcome labels for the feed message counter
const (
	OutcomeApplied = "applied"
	OutcomeInvalid = "invalid"
)

// Config selects the topic to consume
type Config struct {
	Brokers []string
	Topic   string
	GroupID string

	// Select makes every record move the highlight. Otherwise records only
	// refresh stored metrics unless they set "select": true themselves.
	Select bool
}

// MessageReader is the subset of *kafkago.Reader the source needs
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Submitter receives decoded updates
type Submitter interface {
	Submit(u globe.Update)
}

// KafkaSource reads metric records and submits them to the globe
type KafkaSource struct {
	reader  MessageReader
	sink    Submitter
	selects bool
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewKafkaSource creates a consumer-group reader for the configured topic
func NewKafkaSource(cfg Config, sink Submitter, metrics *observability.Metrics, logger *slog.Logger) *KafkaSource {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 1 << 20,
		MaxWait:  500 * time.Millisecond,
	})
	return NewSourceFromReader(r, cfg.Select, sink, metrics, logger)
}

// NewSourceFromReader wraps an existing reader, useful for testing
func NewSourceFromReader(r MessageReader, selects bool, sink Submitter, metrics *observability.Metrics, logger *slog.Logger) *KafkaSource {
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSource{reader: r, sink: sink, selects: selects, metrics: metrics, logger: logger}
}

// Run consumes until ctx is cancelled. Fetch failures back off
// exponentially; records that do not decode are logged, counted and
// committed so they are not redelivered.
func (s *KafkaSource) Run(ctx context.Context) error {
	s.logger.Info("metric feed started")
	s.metrics.FeedRunning.Set(1)
	defer s.metrics.FeedRunning.Set(0)

	backoff := initialBackoff
	for {
		msg, err := s.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("metric feed stopping", "reason", ctx.Err())
				return nil
			}
			s.logger.Error("fetch message failed", "error", err, "retry_in", backoff)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff

		u, err := DecodeUpdate(msg, s.selects)
		if err != nil {
			s.logger.Warn("skipping metric record",
				"error", err,
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
			)
			s.metrics.FeedMessages.WithLabelValues(OutcomeInvalid).Inc()
		} else {
			s.sink.Submit(u)
			s.metrics.FeedMessages.WithLabelValues(OutcomeApplied).Inc()
		}

		if err := s.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			s.logger.Warn("commit offset failed", "error", err,
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)
		}
	}
}

// Close closes the underlying reader
func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

type record struct {
	Region  core.RegionID   `json:"region"`
	Metrics *core.MetricSet `json:"metrics"`
	Select  *bool           `json:"select,omitempty"`
}

var errNoRegion = errors.New("record names no region")

// DecodeUpdate turns a record into a globe update. The region comes from the
// JSON body, falling back to the message key.
func DecodeUpdate(msg kafkago.Message, selects bool) (globe.Update, error) {
	var rec record
	if err := json.Unmarshal(msg.Value, &rec); err != nil {
		return globe.Update{}, fmt.Errorf("decode metric record: %w", err)
	}
	region := core.RegionID(strings.TrimSpace(string(rec.Region)))
	if region == "" {
		region = core.RegionID(strings.TrimSpace(string(msg.Key)))
	}
	if region == "" {
		return globe.Update{}, errNoRegion
	}
	if rec.Metrics == nil {
		return globe.Update{}, fmt.Errorf("record for %q carries no metrics", region)
	}

	move := selects
	if rec.Select != nil {
		move = *rec.Select
	}
	return globe.Update{
		Selection:   globe.Selection{Region: region, Metrics: *rec.Metrics},
		Source:      globe.SourceFeed,
		MetricsOnly: !move,
	}, nil
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
