package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Checker-Finance/product-proxy/internal/metrics"
	"github.com/Checker-Finance/product-proxy/pkg/model"
)

const eventVersion = "1.0.0"

// JetStream is the part of nats.JetStreamContext the publisher needs.
type JetStream interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher emits product change events to NATS JetStream.
type Publisher struct {
	js      JetStream
	subject string
	service string
	logger  *zap.Logger
	now     func() time.Time
}

// New creates a Publisher on the JetStream context of nc.
func New(nc *nats.Conn, subject, service string, logger *zap.Logger) (*Publisher, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream context: %w", err)
	}
	return NewWithJetStream(js, subject, service, logger), nil
}

// NewWithJetStream creates a Publisher on an existing JetStream.
func NewWithJetStream(js JetStream, subject, service string, logger *zap.Logger) *Publisher {
	return &Publisher{
		js:      js,
		subject: subject,
		service: service,
		logger:  logger,
		now:     time.Now,
	}
}

// PublishProductEvent wraps evt in an Envelope and publishes it.
func (p *Publisher) PublishProductEvent(ctx context.Context, eventType string, evt model.ProductChanged) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := &model.Envelope{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		EventType:     eventType,
		Version:       eventVersion,
		Source:        p.service,
		Timestamp:     p.now().UTC(),
		Payload:       payload,
	}
	return p.PublishEnvelope(ctx, env)
}

// PublishEnvelope serializes and publishes env on the configured subject.
func (p *Publisher) PublishEnvelope(ctx context.Context, env *model.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("publisher.marshal_failed",
			zap.String("subject", p.subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		return err
	}

	msg := &nats.Msg{
		Subject: p.subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{env.EventType},
			"correlation_id": []string{env.CorrelationID.String()},
			"service":        []string{p.service},
			"content_type":   []string{"application/json"},
		},
	}

	if _, err := p.js.PublishMsg(msg, nats.Context(ctx)); err != nil {
		metrics.IncEventPublishError(p.subject)
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", p.subject),
			zap.String("event_type", env.EventType),
			zap.Error(err))
		return err
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", p.subject),
		zap.String("event_type", env.EventType))
	return nil
}
