// Package events mirrors outcome records to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"SelfEarnBot/internal/domain"
	"SelfEarnBot/internal/ports"
)

var _ ports.OutcomeSink = (*KafkaProducer)(nil)

// ProducerConfig contains configurable parameters for the Kafka producer.
type ProducerConfig struct {
	// Brokers is the list of Kafka broker addresses (host:port).
	Brokers []string

	// Topic receives one message per outcome record.
	Topic string

	// MaxAttempts defaults to 3 if <= 0.
	MaxAttempts int

	// WriteTimeout is the per-attempt timeout. Defaults to 5s.
	WriteTimeout time.Duration

	// ErrorLogger receives the writer's internal error reports.
	ErrorLogger kafka.Logger
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaProducer writes outcome records keyed by category so that records of
// one category stay ordered on a partition.
type KafkaProducer struct {
	writer       messageWriter
	maxAttempts  int
	writeTimeout time.Duration
	backoff      time.Duration
	now          func() time.Time
}

// NewKafkaProducer constructs a producer over a kafka-go Writer.
func NewKafkaProducer(cfg ProducerConfig) (*KafkaProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic required")
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		ErrorLogger:  cfg.ErrorLogger,
	}
	return newProducer(w, cfg), nil
}

func newProducer(w messageWriter, cfg ProducerConfig) *KafkaProducer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &KafkaProducer{
		writer:       w,
		maxAttempts:  cfg.MaxAttempts,
		writeTimeout: cfg.WriteTimeout,
		backoff:      100 * time.Millisecond,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type outcomeMessage struct {
	ID               string   `json:"id"`
	CycleID          string   `json:"cycle_id"`
	OpportunityID    string   `json:"opportunity_id"`
	ContentID        string   `json:"content_id,omitempty"`
	PublishID        string   `json:"publish_id,omitempty"`
	Status           string   `json:"status"`
	Category         string   `json:"category"`
	Source           string   `json:"source"`
	Provider         string   `json:"provider,omitempty"`
	OpportunityScore float64  `json:"opportunity_score"`
	ContentQuality   float64  `json:"content_quality"`
	EstimatedRevenue float64  `json:"estimated_revenue"`
	ActualRevenue    float64  `json:"actual_revenue"`
	ActualCost       float64  `json:"actual_cost"`
	Profit           float64  `json:"profit"`
	Success          bool     `json:"success"`
	Insights         []string `json:"insights,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

func toMessage(rec domain.OutcomeRecord) outcomeMessage {
	return outcomeMessage{
		ID:               rec.ID,
		CycleID:          rec.CycleID,
		OpportunityID:    rec.OpportunityID,
		ContentID:        rec.ContentID,
		PublishID:        rec.PublishID,
		Status:           string(rec.Status),
		Category:         string(rec.Features.Category),
		Source:           rec.Features.Source,
		Provider:         rec.Features.Provider,
		OpportunityScore: rec.Features.OpportunityScore,
		ContentQuality:   rec.Features.ContentQuality,
		EstimatedRevenue: rec.Features.EstimatedRevenue,
		ActualRevenue:    rec.Features.ActualRevenue,
		ActualCost:       rec.Features.ActualCost,
		Profit:           rec.Profit,
		Success:          rec.Success,
		Insights:         rec.Insights,
		CreatedAt:        rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// PublishOutcome produces one JSON message, retrying transient errors with
// exponential backoff.
func (p *KafkaProducer) PublishOutcome(ctx context.Context, rec domain.OutcomeRecord) error {
	value, err := json.Marshal(toMessage(rec))
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(rec.Features.Category),
		Value: value,
		Time:  p.now(),
	}

	var lastErr error
	backoff := p.backoff
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
		err := p.writer.WriteMessages(attemptCtx, msg)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	return fmt.Errorf("produce outcome %s failed after %d attempts: %w", rec.ID, p.maxAttempts, lastErr)
}

// Close flushes and shuts down the underlying writer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
