// Package events publishes job lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-speech-transcribe-service/internal/models"
	"ai-speech-transcribe-service/internal/observability/metrics"
)

// Publisher publishes job events to a started topic and a completed topic.
// Failed jobs go to the completed topic with EventJobFailed.
type Publisher struct {
	writerStarted   *kafka.Writer
	writerCompleted *kafka.Writer
	principal       string
	topicStarted    string
	topicCompleted  string
	enabled         bool
	metrics         *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers        []string
	TopicStarted   string
	TopicCompleted string
	Principal      string
	Enabled        bool
}

// New creates a publisher. A nil or disabled config, or one without brokers,
// yields a log-only publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{metrics: m}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:      cfg.Principal,
			topicStarted:   cfg.TopicStarted,
			topicCompleted: cfg.TopicCompleted,
			metrics:        m,
		}
	}

	// longer dial timeout for DNS resolution in Kubernetes
	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{Dial: dialer.DialFunc}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicStarted", cfg.TopicStarted).
		Str("topicCompleted", cfg.TopicCompleted).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerStarted:   newWriter(cfg.Brokers, cfg.TopicStarted, transport),
		writerCompleted: newWriter(cfg.Brokers, cfg.TopicCompleted, transport),
		principal:       cfg.Principal,
		topicStarted:    cfg.TopicStarted,
		topicCompleted:  cfg.TopicCompleted,
		enabled:         true,
		metrics:         m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishStarted publishes a job started event keyed by job name.
func (p *Publisher) PublishStarted(ctx context.Context, event models.JobEvent) error {
	return p.publish(ctx, p.writerStarted, p.topicStarted, event)
}

// PublishCompleted publishes a terminal job event keyed by job name.
func (p *Publisher) PublishCompleted(ctx context.Context, event models.JobEvent) error {
	return p.publish(ctx, p.writerCompleted, p.topicCompleted, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic string, event models.JobEvent) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("jobName", event.JobName).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, event.EventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.JobName),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(event.EventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	err = writer.WriteMessages(ctx, msg)
	p.metrics.RecordKafkaPublish(topic, event.EventType, err, time.Since(start).Seconds())
	if err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("jobName", event.JobName).
			Msg("Failed to write to Kafka")
		return err
	}
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerStarted != nil {
		if e := p.writerStarted.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing started writer")
			err = e
		}
	}
	if p.writerCompleted != nil {
		if e := p.writerCompleted.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing completed writer")
			err = e
		}
	}
	return err
}
