package product

import (
	"context"
	"encoding/json"
	"iter"

	"go.uber.org/zap"

	"github.com/Checker-Finance/product-proxy/pkg/model"
)

// Upstream is the subset of the upstream API client used by the service.
type Upstream interface {
	List(ctx context.Context) ([]model.UpstreamProduct, error)
	Create(ctx context.Context, p model.CreatePayload) error
	Update(ctx context.Context, id string, p model.UpdatePayload) error
	Delete(ctx context.Context, id string) error
}

// EventPublisher emits product change events.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, eventType string, evt model.ProductChanged) error
}

// Service translates validated drafts for the upstream API and reports changes.
type Service struct {
	logger *zap.Logger
	api    Upstream
	events EventPublisher
}

// NewService creates a Service. events may be nil.
func NewService(logger *zap.Logger, api Upstream, events EventPublisher) *Service {
	return &Service{
		logger: logger,
		api:    api,
		events: events,
	}
}

// List returns every product in locale-facing form.
func (s *Service) List(ctx context.Context) (iter.Seq[model.Product], error) {
	records, err := s.api.List(ctx)
	if err != nil {
		return nil, err
	}
	return ToLocale(records), nil
}

// Create forwards a new product upstream.
func (s *Service) Create(ctx context.Context, d Draft) error {
	p := d.CreatePayload()
	if err := s.api.Create(ctx, p); err != nil {
		return err
	}
	s.publish(ctx, model.EventProductCreated, model.ProductChanged{Name: p.Name, Price: p.Price})
	return nil
}

// Update forwards the new state of product id upstream.
func (s *Service) Update(ctx context.Context, id string, d Draft) error {
	p := d.UpdatePayload(id)
	if err := s.api.Update(ctx, id, p); err != nil {
		return err
	}
	s.publish(ctx, model.EventProductUpdated, model.ProductChanged{ProductID: id, Name: p.Name, Price: p.Price})
	return nil
}

// Delete removes product id upstream.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, model.EventProductDeleted, model.ProductChanged{ProductID: id})
	return nil
}

// publish is best effort; the upstream outcome stands regardless.
func (s *Service) publish(ctx context.Context, eventType string, evt model.ProductChanged) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishProductEvent(ctx, eventType, evt); err != nil {
		payload, _ := json.Marshal(evt)
		s.logger.Warn("products.event_publish_failed",
			zap.String("event_type", eventType),
			zap.ByteString("payload", payload),
			zap.Error(err))
	}
}
