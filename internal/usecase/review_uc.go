package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markethub/review-service/internal/domain"
	"github.com/markethub/review-service/internal/platform/logger"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}

// Options are the review behavior knobs, constructed once at startup and
// passed into NewReviewUsecase.
type Options struct {
	DefaultPageSize  int64
	MaxPageSize      int64
	MaxCommentLength int
}

// DefaultOptions returns the options used when a zero value is supplied.
func DefaultOptions() Options {
	return Options{
		DefaultPageSize:  10,
		MaxPageSize:      100,
		MaxCommentLength: 4000,
	}
}

// ReviewUsecase implements the business logic for reviews.
type ReviewUsecase struct {
	reviews  domain.ReviewRepository
	orders   domain.OrderRepository
	variants domain.ProductVariantRepository
	sellers  domain.SellerRepository
	events   EventPublisher
	opts     Options
	logger   *logger.Logger
}

// NewReviewUsecase creates a new ReviewUsecase.
func NewReviewUsecase(
	reviews domain.ReviewRepository,
	orders domain.OrderRepository,
	variants domain.ProductVariantRepository,
	sellers domain.SellerRepository,
	events EventPublisher,
	opts Options,
	log *logger.Logger,
) *ReviewUsecase {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultOptions().DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = DefaultOptions().MaxPageSize
	}
	if opts.MaxCommentLength <= 0 {
		opts.MaxCommentLength = DefaultOptions().MaxCommentLength
	}
	return &ReviewUsecase{
		reviews:  reviews,
		orders:   orders,
		variants: variants,
		sellers:  sellers,
		events:   events,
		opts:     opts,
		logger:   log.Named("ReviewUsecase"),
	}
}

// CreateReviewInput holds the input parameters for creating a review.
// The author is never part of the input; it is the requesting identity.
type CreateReviewInput struct {
	Rating           int32
	Comment          string
	OrderID          string
	ProductVariantID string
	SellerID         string
}

// UpdateReviewInput holds the partial-update parameters. Nil fields are
// left untouched on the stored review.
type UpdateReviewInput struct {
	ID      primitive.ObjectID
	Rating  *int32
	Comment *string
}

// FindOne retrieves a review with the requested relations hydrated.
// Absence is a nil review, not an error.
func (uc *ReviewUsecase) FindOne(ctx context.Context, id primitive.ObjectID, relations []string) (*domain.Review, error) {
	review, err := uc.reviews.FindOne(ctx, id, domain.NormalizeRelations(relations))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		uc.logger.Error("Failed to find review", zap.Error(err), zap.String("review_id", id.Hex()))
		return nil, fmt.Errorf("%w: failed to find review: %v", domain.ErrRepository, err)
	}
	return review, nil
}

// FindAll retrieves a page of reviews matching the list options plus the
// total match count. Filtering and ordering are delegated to the
// repository; the usecase only clamps the page window.
func (uc *ReviewUsecase) FindAll(ctx context.Context, opts domain.ListOptions, relations []string) (*domain.PaginatedList, error) {
	if opts.Skip < 0 {
		opts.Skip = 0
	}
	if opts.Take <= 0 {
		opts.Take = uc.opts.DefaultPageSize
	} else if opts.Take > uc.opts.MaxPageSize {
		opts.Take = uc.opts.MaxPageSize
	}

	items, total, err := uc.reviews.FindAll(ctx, opts, domain.NormalizeRelations(relations))
	if err != nil {
		uc.logger.Error("Failed to list reviews", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to list reviews: %v", domain.ErrRepository, err)
	}
	return &domain.PaginatedList{Items: items, TotalItems: total}, nil
}

// AverageRating computes the arithmetic mean of the rating over all
// reviews of the given seller or product variant. A dimension value with
// no reviews yields 0, never an error.
func (uc *ReviewUsecase) AverageRating(ctx context.Context, dimension domain.RatingDimension, id string) (float64, error) {
	if !dimension.IsValid() {
		return 0, fmt.Errorf("%w: unknown rating dimension '%s'", domain.ErrInvalidInput, dimension)
	}
	if id == "" {
		return 0, fmt.Errorf("%w: %s id cannot be empty", domain.ErrInvalidInput, dimension)
	}

	avg, err := uc.reviews.AverageRating(ctx, dimension, id)
	if err != nil {
		uc.logger.Error("Failed to compute average rating", zap.Error(err), zap.String("dimension", string(dimension)), zap.String("id", id))
		return 0, fmt.Errorf("%w: failed to compute average rating: %v", domain.ErrRepository, err)
	}
	return avg, nil
}

// Create validates and persists a new review authored by customerID.
// Each failure keeps its own classification; ErrRepository is reserved
// for unexpected persistence faults.
func (uc *ReviewUsecase) Create(ctx context.Context, customerID string, input CreateReviewInput) (*domain.Review, error) {
	uc.logger.Info("Creating review",
		zap.String("customer_id", customerID),
		zap.String("order_id", input.OrderID),
		zap.String("product_variant_id", input.ProductVariantID),
		zap.String("seller_id", input.SellerID),
		zap.Int32("rating", input.Rating))

	if customerID == "" {
		return nil, fmt.Errorf("%w: customer identity is required", domain.ErrInvalidInput)
	}
	if input.OrderID == "" || input.ProductVariantID == "" || input.SellerID == "" {
		return nil, fmt.Errorf("%w: missing required fields: orderId, productVariantId, or sellerId", domain.ErrInvalidInput)
	}
	if !domain.ValidRating(input.Rating) {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}
	if len(input.Comment) > uc.opts.MaxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", domain.ErrInvalidInput, uc.opts.MaxCommentLength)
	}

	// The three references are independent; resolve them concurrently and
	// abort on the first failure.
	var (
		order   *domain.Order
		variant *domain.ProductVariant
		seller  *domain.Seller
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := uc.orders.GetByID(gctx, input.OrderID)
		if err != nil {
			return fmt.Errorf("order '%s': %w", input.OrderID, err)
		}
		order = o
		return nil
	})
	g.Go(func() error {
		v, err := uc.variants.GetByID(gctx, input.ProductVariantID)
		if err != nil {
			return fmt.Errorf("product variant '%s': %w", input.ProductVariantID, err)
		}
		variant = v
		return nil
	})
	g.Go(func() error {
		s, err := uc.sellers.GetByID(gctx, input.SellerID)
		if err != nil {
			return fmt.Errorf("seller '%s': %w", input.SellerID, err)
		}
		seller = s
		return nil
	})
	if err := g.Wait(); err != nil {
		uc.logger.Warn("Review reference resolution failed", zap.Error(err))
		return nil, err
	}

	if order.CustomerID != customerID {
		uc.logger.Warn("Customer attempted to review an order they do not own",
			zap.String("customer_id", customerID),
			zap.String("order_customer_id", order.CustomerID),
			zap.String("order_id", order.ID))
		return nil, fmt.Errorf("%w: you can only review your own orders", domain.ErrForbidden)
	}
	if !order.Delivered() {
		return nil, fmt.Errorf("%w: you can only review completed orders", domain.ErrInvalidInput)
	}

	review, err := domain.NewReview(customerID, variant.ID, order.ID, seller.ID, input.Comment, input.Rating)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := uc.reviews.Create(ctx, review); err != nil {
		uc.logger.Error("Failed to save review to repository", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to create review: %v", domain.ErrRepository, err)
	}

	uc.publish(ctx, "review.created", map[string]interface{}{
		"event_id":           uuid.NewString(),
		"review_id":          review.ID.Hex(),
		"customer_id":        review.CustomerID,
		"product_variant_id": review.ProductVariantID,
		"order_id":           review.OrderID,
		"seller_id":          review.SellerID,
		"rating":             review.Rating,
		"created_at":         review.CreatedAt.Format(time.RFC3339Nano),
	})

	uc.logger.Info("Review created successfully", zap.String("review_id", review.ID.Hex()))
	return review, nil
}

// Update applies the supplied fields onto the stored review, persists,
// and returns the canonical post-update state re-read from storage.
// Authorization is the caller's concern: the storefront surface permits
// only the owner, the administrative surface is unrestricted.
func (uc *ReviewUsecase) Update(ctx context.Context, input UpdateReviewInput) (*domain.Review, error) {
	uc.logger.Info("Updating review", zap.String("review_id", input.ID.Hex()))

	if input.Rating != nil && !domain.ValidRating(*input.Rating) {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidInput, domain.MinRating, domain.MaxRating)
	}
	if input.Comment != nil && len(*input.Comment) > uc.opts.MaxCommentLength {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", domain.ErrInvalidInput, uc.opts.MaxCommentLength)
	}

	review, err := uc.reviews.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Rating != nil {
		review.Rating = *input.Rating
	}
	if input.Comment != nil {
		review.Comment = *input.Comment
	}

	if err := uc.reviews.Update(ctx, review); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		uc.logger.Error("Failed to update review in repository", zap.Error(err), zap.String("review_id", input.ID.Hex()))
		return nil, fmt.Errorf("%w: failed to update review: %v", domain.ErrRepository, err)
	}

	// Re-read so the caller observes server-computed fields, not the
	// in-memory patch.
	updated, err := uc.reviews.GetByID(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to reload review after update: %v", domain.ErrRepository, err)
	}

	uc.publish(ctx, "review.updated", map[string]interface{}{
		"event_id":    uuid.NewString(),
		"review_id":   updated.ID.Hex(),
		"customer_id": updated.CustomerID,
		"rating":      updated.Rating,
		"updated_at":  updated.UpdatedAt.Format(time.RFC3339Nano),
	})

	uc.logger.Info("Review updated successfully", zap.String("review_id", updated.ID.Hex()))
	return updated, nil
}

// Delete removes a review. It never returns an error: any failure is
// captured as a NOT_DELETED outcome with a message.
func (uc *ReviewUsecase) Delete(ctx context.Context, id primitive.ObjectID) domain.DeletionResponse {
	uc.logger.Info("Deleting review", zap.String("review_id", id.Hex()))

	review, err := uc.reviews.GetByID(ctx, id)
	if err != nil {
		uc.logger.Warn("Review deletion failed on lookup", zap.Error(err), zap.String("review_id", id.Hex()))
		return domain.DeletionResponse{
			Result:  domain.DeletionResultNotDeleted,
			Message: fmt.Sprintf("failed to delete review: %v", err),
		}
	}

	if err := uc.reviews.Delete(ctx, id); err != nil {
		uc.logger.Error("Review deletion failed", zap.Error(err), zap.String("review_id", id.Hex()))
		return domain.DeletionResponse{
			Result:  domain.DeletionResultNotDeleted,
			Message: fmt.Sprintf("failed to delete review: %v", err),
		}
	}

	uc.publish(ctx, "review.deleted", map[string]interface{}{
		"event_id":           uuid.NewString(),
		"review_id":          id.Hex(),
		"customer_id":        review.CustomerID,
		"product_variant_id": review.ProductVariantID,
		"deleted_at":         time.Now().UTC().Format(time.RFC3339Nano),
	})

	uc.logger.Info("Review deleted successfully", zap.String("review_id", id.Hex()))
	return domain.DeletionResponse{Result: domain.DeletionResultDeleted}
}

// RemoveForCustomer removes all reviews authored by the customer. Driven
// by customer.deleted events to honor the cascade semantics of the
// customer relation.
func (uc *ReviewUsecase) RemoveForCustomer(ctx context.Context, customerID string) (int64, error) {
	if customerID == "" {
		return 0, fmt.Errorf("%w: customer id cannot be empty", domain.ErrInvalidInput)
	}
	removed, err := uc.reviews.DeleteByCustomer(ctx, customerID)
	if err != nil {
		uc.logger.Error("Cascade removal for customer failed", zap.Error(err), zap.String("customer_id", customerID))
		return 0, fmt.Errorf("%w: cascade removal for customer failed: %v", domain.ErrRepository, err)
	}
	uc.logger.Info("Removed reviews for deleted customer", zap.String("customer_id", customerID), zap.Int64("removed", removed))
	return removed, nil
}

// RemoveForProductVariant removes all reviews of the variant. Driven by
// catalog.variant.deleted events.
func (uc *ReviewUsecase) RemoveForProductVariant(ctx context.Context, productVariantID string) (int64, error) {
	if productVariantID == "" {
		return 0, fmt.Errorf("%w: product variant id cannot be empty", domain.ErrInvalidInput)
	}
	removed, err := uc.reviews.DeleteByProductVariant(ctx, productVariantID)
	if err != nil {
		uc.logger.Error("Cascade removal for product variant failed", zap.Error(err), zap.String("product_variant_id", productVariantID))
		return 0, fmt.Errorf("%w: cascade removal for product variant failed: %v", domain.ErrRepository, err)
	}
	uc.logger.Info("Removed reviews for deleted product variant", zap.String("product_variant_id", productVariantID), zap.Int64("removed", removed))
	return removed, nil
}

// publish sends an event and logs on failure. Event delivery is not part
// of the operation's contract.
func (uc *ReviewUsecase) publish(ctx context.Context, subject string, data map[string]interface{}) {
	if uc.events == nil {
		return
	}
	if err := uc.events.Publish(ctx, subject, data); err != nil {
		uc.logger.Warn("Failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
