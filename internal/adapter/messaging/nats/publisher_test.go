package nats

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/markethub/review-service/internal/platform/logger"
)

func TestAsyncErrorHandler_NilSubscription(t *testing.T) {
	handler := asyncErrorHandler(logger.NewLogger())

	// Connection-level async errors arrive without a subscription.
	assert.NotPanics(t, func() {
		handler(nil, nil, errors.New("slow consumer"))
	})
}

func TestAsyncErrorHandler_WithSubscription(t *testing.T) {
	handler := asyncErrorHandler(logger.NewLogger())

	assert.NotPanics(t, func() {
		handler(nil, &nats.Subscription{Subject: "review.created"}, errors.New("handler error"))
	})
}
