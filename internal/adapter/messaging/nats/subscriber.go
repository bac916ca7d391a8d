package nats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/platform/logger"
)

// Subjects the review service reacts to. Reviews cascade away with their
// customer and with their product variant.
const (
	SubjectCustomerDeleted = "customer.deleted"
	SubjectVariantDeleted  = "catalog.variant.deleted"
)

const cascadeTimeout = 30 * time.Second

// ReviewCascader removes reviews when their related entities are deleted.
type ReviewCascader interface {
	RemoveForCustomer(ctx context.Context, customerID string) (int64, error)
	RemoveForProductVariant(ctx context.Context, productVariantID string) (int64, error)
}

// Subscriber listens for entity deletion events and applies the cascade.
type Subscriber struct {
	conn     *nats.Conn
	cascader ReviewCascader
	logger   *logger.Logger
	subs     []*nats.Subscription
}

// NewSubscriber creates a subscriber on an existing NATS connection.
func NewSubscriber(conn *nats.Conn, cascader ReviewCascader, log *logger.Logger) *Subscriber {
	return &Subscriber{
		conn:     conn,
		cascader: cascader,
		logger:   log.Named("NATSSubscriber"),
	}
}

type customerDeletedEvent struct {
	CustomerID string `json:"customer_id"`
}

type variantDeletedEvent struct {
	ProductVariantID string `json:"product_variant_id"`
}

// Subscribe registers the deletion-event handlers.
func (s *Subscriber) Subscribe() error {
	sub, err := s.conn.Subscribe(SubjectCustomerDeleted, s.handleCustomerDeleted)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)

	sub, err = s.conn.Subscribe(SubjectVariantDeleted, s.handleVariantDeleted)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)

	s.logger.Info("NATS Subscriber: subscriptions registered",
		zap.Strings("subjects", []string{SubjectCustomerDeleted, SubjectVariantDeleted}))
	return nil
}

func (s *Subscriber) handleCustomerDeleted(msg *nats.Msg) {
	var event customerDeletedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("NATS Subscriber: failed to decode customer.deleted event", zap.Error(err))
		return
	}
	if event.CustomerID == "" {
		s.logger.Warn("NATS Subscriber: customer.deleted event without customer_id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
	defer cancel()

	removed, err := s.cascader.RemoveForCustomer(ctx, event.CustomerID)
	if err != nil {
		s.logger.Error("NATS Subscriber: cascade removal for customer failed",
			zap.Error(err), zap.String("customer_id", event.CustomerID))
		return
	}
	s.logger.Info("NATS Subscriber: cascade removal for customer applied",
		zap.String("customer_id", event.CustomerID), zap.Int64("removed", removed))
}

func (s *Subscriber) handleVariantDeleted(msg *nats.Msg) {
	var event variantDeletedEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logger.Error("NATS Subscriber: failed to decode catalog.variant.deleted event", zap.Error(err))
		return
	}
	if event.ProductVariantID == "" {
		s.logger.Warn("NATS Subscriber: catalog.variant.deleted event without product_variant_id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cascadeTimeout)
	defer cancel()

	removed, err := s.cascader.RemoveForProductVariant(ctx, event.ProductVariantID)
	if err != nil {
		s.logger.Error("NATS Subscriber: cascade removal for product variant failed",
			zap.Error(err), zap.String("product_variant_id", event.ProductVariantID))
		return
	}
	s.logger.Info("NATS Subscriber: cascade removal for product variant applied",
		zap.String("product_variant_id", event.ProductVariantID), zap.Int64("removed", removed))
}

// Unsubscribe removes all subscriptions.
func (s *Subscriber) Unsubscribe() {
	for _, sub := range s.subs {
		if err := sub.Unsubscribe(); err != nil {
			s.logger.Warn("NATS Subscriber: unsubscribe failed", zap.Error(err))
		}
	}
	s.subs = nil
}
