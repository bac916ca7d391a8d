package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Domain Specific Errors ---

var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("entity not found")
	// ErrForbidden indicates that the user is not authorized to perform the action.
	ErrForbidden = errors.New("action forbidden")
	// ErrInvalidInput indicates that the provided input data is invalid.
	ErrInvalidInput = errors.New("invalid input data")
	// ErrRepository indicates an unexpected data persistence error.
	ErrRepository = errors.New("repository error")
)

// Rating bounds. Zero is not a valid rating: the scale starts at one star.
const (
	MinRating int32 = 1
	MaxRating int32 = 5
)

// ValidRating reports whether r lies within the accepted rating scale.
func ValidRating(r int32) bool {
	return r >= MinRating && r <= MaxRating
}

// --- Review Entity ---

// Review is a customer's rating and comment for a product variant,
// licensed by a delivered order and addressed to the variant's seller.
// The relation pointers are nil unless the query asked for them to be
// hydrated; the *ID fields are always populated.
type Review struct {
	ID               primitive.ObjectID
	Rating           int32
	Comment          string
	CustomerID       string
	ProductVariantID string
	OrderID          string
	SellerID         string
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Customer       *Customer
	ProductVariant *ProductVariant
	Order          *Order
	Seller         *Seller
}

// NewReview builds a review for the given customer and references.
// Timestamps are assigned by the repository at insert time.
func NewReview(customerID, productVariantID, orderID, sellerID, comment string, rating int32) (*Review, error) {
	if customerID == "" {
		return nil, errors.New("customerID cannot be empty")
	}
	if productVariantID == "" || orderID == "" || sellerID == "" {
		return nil, errors.New("productVariantID, orderID and sellerID are required")
	}
	if !ValidRating(rating) {
		return nil, errors.New("rating must be between 1 and 5")
	}
	return &Review{
		ID:               primitive.NewObjectID(),
		Rating:           rating,
		Comment:          comment,
		CustomerID:       customerID,
		ProductVariantID: productVariantID,
		OrderID:          orderID,
		SellerID:         sellerID,
	}, nil
}

// --- Relations ---

// Relation names accepted by the lookup and list operations.
const (
	RelationCustomer       = "customer"
	RelationProductVariant = "productVariant"
	RelationOrder          = "order"
	RelationSeller         = "seller"
)

// NormalizeRelations deduplicates the requested relation paths and drops
// names that do not correspond to a Review relation.
func NormalizeRelations(relations []string) []string {
	if len(relations) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(relations))
	out := make([]string, 0, len(relations))
	for _, rel := range relations {
		switch rel {
		case RelationCustomer, RelationProductVariant, RelationOrder, RelationSeller:
			if !seen[rel] {
				seen[rel] = true
				out = append(out, rel)
			}
		}
	}
	return out
}

// --- Rating Dimension ---

// RatingDimension selects the foreign key an average-rating aggregation
// groups on.
type RatingDimension string

const (
	DimensionSeller         RatingDimension = "seller"
	DimensionProductVariant RatingDimension = "productVariant"
)

// IsValid checks if the RatingDimension is one of the defined constants.
func (d RatingDimension) IsValid() bool {
	return d == DimensionSeller || d == DimensionProductVariant
}

// --- Deletion Response ---

// DeletionResult distinguishes a successful removal from a failed one.
type DeletionResult string

const (
	DeletionResultDeleted    DeletionResult = "DELETED"
	DeletionResultNotDeleted DeletionResult = "NOT_DELETED"
)

// DeletionResponse is returned by the delete operation instead of an
// error: removal failures are reported as a NOT_DELETED outcome with a
// human-readable message.
type DeletionResponse struct {
	Result  DeletionResult
	Message string
}

// --- List Options ---

// SortOrder for list queries.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListOptions holds filter, sort and pagination parameters for listing
// reviews. Zero values mean "no filter"; Skip/Take clamping is applied
// before the options reach the repository.
type ListOptions struct {
	Skip int64
	Take int64

	SellerID         string
	ProductVariantID string
	CustomerID       string
	OrderID          string
	MinRating        *int32
	MaxRating        *int32

	SortBy    string // "created_at", "updated_at" or "rating"
	SortOrder SortOrder
}

// PaginatedList is a page of reviews plus the total match count.
type PaginatedList struct {
	Items      []*Review
	TotalItems int64
}
