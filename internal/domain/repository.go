package domain

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReviewRepository defines the interface for review data persistence.
// Methods operate on the clean domain.Review entity, without any
// direct knowledge of database-specific tags or structures.
type ReviewRepository interface {
	Create(ctx context.Context, review *Review) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*Review, error)
	Update(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// FindOne retrieves a review with the requested relations hydrated.
	// Returns ErrNotFound when no review matches.
	FindOne(ctx context.Context, id primitive.ObjectID, relations []string) (*Review, error)

	// FindAll retrieves a filtered, sorted, paginated page of reviews
	// plus the total match count.
	FindAll(ctx context.Context, opts ListOptions, relations []string) ([]*Review, int64, error)

	// AverageRating computes the arithmetic mean of Rating over all
	// reviews whose dimension foreign key equals id. Returns 0 when no
	// reviews match.
	AverageRating(ctx context.Context, dimension RatingDimension, id string) (float64, error)

	// DeleteByCustomer removes all reviews authored by the customer.
	// Used to honor the cascade semantics of the customer relation.
	DeleteByCustomer(ctx context.Context, customerID string) (int64, error)

	// DeleteByProductVariant removes all reviews of the variant.
	DeleteByProductVariant(ctx context.Context, productVariantID string) (int64, error)
}

// OrderRepository resolves orders referenced during review creation.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*Order, error)
}

// ProductVariantRepository resolves catalog variants referenced during
// review creation.
type ProductVariantRepository interface {
	GetByID(ctx context.Context, id string) (*ProductVariant, error)
}

// SellerRepository resolves sellers referenced during review creation.
type SellerRepository interface {
	GetByID(ctx context.Context, id string) (*Seller, error)
}
