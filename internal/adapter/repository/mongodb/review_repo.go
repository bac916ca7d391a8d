package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/domain"
	"github.com/markethub/review-service/internal/platform/logger"
)

const reviewCollectionName = "reviews"

// lookupSpec maps a relation path to the collection it joins against and
// the document field the joined entity lands in.
type lookupSpec struct {
	from       string
	localField string
	as         string
}

var relationLookups = map[string]lookupSpec{
	domain.RelationCustomer:       {from: customerCollectionName, localField: "customer_id", as: "customer"},
	domain.RelationProductVariant: {from: variantCollectionName, localField: "product_variant_id", as: "product_variant"},
	domain.RelationOrder:          {from: orderCollectionName, localField: "order_id", as: "order"},
	domain.RelationSeller:         {from: sellerCollectionName, localField: "seller_id", as: "seller"},
}

// ReviewRepository implements domain.ReviewRepository using MongoDB.
type ReviewRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewReviewRepository creates a new MongoDB review repository and ensures
// its indexes.
func NewReviewRepository(db *mongo.Database, log *logger.Logger) (*ReviewRepository, error) {
	collection := db.Collection(reviewCollectionName)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seller_id", Value: 1}}},          // average-rating aggregation by seller
		{Keys: bson.D{{Key: "product_variant_id", Value: 1}}}, // average-rating aggregation by variant
		{Keys: bson.D{{Key: "customer_id", Value: 1}}},        // cascade removal and ownership listing
		{Keys: bson.D{{Key: "order_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		log.Error("Failed to create indexes for reviews collection", zap.Error(err))
		// Indexes may already exist or be managed externally.
	} else {
		log.Info("Successfully ensured indexes for reviews collection")
	}

	return &ReviewRepository{
		collection: collection,
		logger:     log.Named("ReviewRepository"),
	}, nil
}

// reviewDocument is the persisted shape of a review. The relation fields
// are only populated by $lookup stages.
type reviewDocument struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Rating           int32              `bson:"rating"`
	Comment          string             `bson:"comment,omitempty"`
	CustomerID       string             `bson:"customer_id"`
	ProductVariantID string             `bson:"product_variant_id"`
	OrderID          string             `bson:"order_id"`
	SellerID         string             `bson:"seller_id"`
	CreatedAt        time.Time          `bson:"created_at"`
	UpdatedAt        time.Time          `bson:"updated_at"`

	Customer       *customerDocument `bson:"customer,omitempty"`
	ProductVariant *variantDocument  `bson:"product_variant,omitempty"`
	Order          *orderDocument    `bson:"order,omitempty"`
	Seller         *sellerDocument   `bson:"seller,omitempty"`
}

func fromDomainReview(review *domain.Review) *reviewDocument {
	return &reviewDocument{
		ID:               review.ID,
		Rating:           review.Rating,
		Comment:          review.Comment,
		CustomerID:       review.CustomerID,
		ProductVariantID: review.ProductVariantID,
		OrderID:          review.OrderID,
		SellerID:         review.SellerID,
		CreatedAt:        review.CreatedAt,
		UpdatedAt:        review.UpdatedAt,
	}
}

func (doc *reviewDocument) toDomainReview() *domain.Review {
	review := &domain.Review{
		ID:               doc.ID,
		Rating:           doc.Rating,
		Comment:          doc.Comment,
		CustomerID:       doc.CustomerID,
		ProductVariantID: doc.ProductVariantID,
		OrderID:          doc.OrderID,
		SellerID:         doc.SellerID,
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
	}
	if doc.Customer != nil {
		review.Customer = doc.Customer.toDomain()
	}
	if doc.ProductVariant != nil {
		review.ProductVariant = doc.ProductVariant.toDomain()
	}
	if doc.Order != nil {
		review.Order = doc.Order.toDomain()
	}
	if doc.Seller != nil {
		review.Seller = doc.Seller.toDomain()
	}
	return review
}

// Create inserts a new review. Timestamps are assigned here.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.logger.Info("Creating review in DB",
		zap.String("product_variant_id", review.ProductVariantID),
		zap.String("customer_id", review.CustomerID))

	doc := fromDomainReview(review)
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	review.ID = doc.ID

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		r.logger.Error("Failed to insert review into DB", zap.Error(err))
		return fmt.Errorf("db insert failed: %w", err)
	}
	r.logger.Info("Review created successfully in DB", zap.String("review_id", doc.ID.Hex()))
	return nil
}

// GetByID retrieves a review by its ID, without relation hydration.
func (r *ReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	r.logger.Debug("Getting review by ID from DB", zap.String("review_id", id.Hex()))
	var doc reviewDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Warn("Review not found in DB", zap.String("review_id", id.Hex()))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get review by ID from DB", zap.Error(err), zap.String("review_id", id.Hex()))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomainReview(), nil
}

// FindOne retrieves a review with the requested relations joined in a
// single aggregation.
func (r *ReviewRepository) FindOne(ctx context.Context, id primitive.ObjectID, relations []string) (*domain.Review, error) {
	r.logger.Debug("Finding review with relations from DB",
		zap.String("review_id", id.Hex()), zap.Strings("relations", relations))

	if len(relations) == 0 {
		return r.GetByID(ctx, id)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: id}}}},
	}
	pipeline = append(pipeline, lookupStages(relations)...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate review with relations", zap.Error(err), zap.String("review_id", id.Hex()))
		return nil, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*reviewDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode review aggregation result", zap.Error(err))
		return nil, fmt.Errorf("db cursor all failed: %w", err)
	}
	if len(docs) == 0 {
		return nil, domain.ErrNotFound
	}
	return docs[0].toDomainReview(), nil
}

// FindAll retrieves a filtered, sorted, paginated page of reviews plus
// the total match count.
func (r *ReviewRepository) FindAll(ctx context.Context, opts domain.ListOptions, relations []string) ([]*domain.Review, int64, error) {
	r.logger.Debug("Finding reviews from DB", zap.Any("options", opts), zap.Strings("relations", relations))

	filter := listFilter(opts)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$sort", Value: sortSpec(opts)}},
	}
	if opts.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: opts.Skip}})
	}
	if opts.Take > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: opts.Take}})
	}
	pipeline = append(pipeline, lookupStages(relations)...)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to find reviews from DB", zap.Error(err))
		return nil, 0, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*reviewDocument
	if err = cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode reviews from DB", zap.Error(err))
		return nil, 0, fmt.Errorf("db cursor all failed: %w", err)
	}

	domainReviews := make([]*domain.Review, len(docs))
	for i, doc := range docs {
		domainReviews[i] = doc.toDomainReview()
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count reviews in DB", zap.Error(err))
		return nil, 0, fmt.Errorf("db count failed: %w", err)
	}

	return domainReviews, total, nil
}

// Update persists the review's rating and comment. Timestamps are
// refreshed here.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	r.logger.Info("Updating review in DB", zap.String("review_id", review.ID.Hex()))
	if review.ID.IsZero() {
		return errors.New("cannot update review without ID")
	}

	now := time.Now().UTC()
	review.UpdatedAt = now

	updatePayload := bson.M{
		"$set": bson.M{
			"rating":     review.Rating,
			"comment":    review.Comment,
			"updated_at": now,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": review.ID}, updatePayload)
	if err != nil {
		r.logger.Error("Failed to update review in DB", zap.Error(err), zap.String("review_id", review.ID.Hex()))
		return fmt.Errorf("db update failed: %w", err)
	}
	if result.MatchedCount == 0 {
		r.logger.Warn("Review not found for update in DB", zap.String("review_id", review.ID.Hex()))
		return domain.ErrNotFound
	}
	r.logger.Info("Review updated successfully in DB", zap.String("review_id", review.ID.Hex()))
	return nil
}

// Delete removes a review from the database.
func (r *ReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.logger.Info("Deleting review from DB", zap.String("review_id", id.Hex()))
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.logger.Error("Failed to delete review from DB", zap.Error(err), zap.String("review_id", id.Hex()))
		return fmt.Errorf("db delete failed: %w", err)
	}
	if result.DeletedCount == 0 {
		r.logger.Warn("Review not found for deletion in DB", zap.String("review_id", id.Hex()))
		return domain.ErrNotFound
	}
	r.logger.Info("Review deleted successfully from DB", zap.String("review_id", id.Hex()))
	return nil
}

// AverageRating computes the mean rating over all reviews whose dimension
// foreign key equals id. No matching rows yields 0.
func (r *ReviewRepository) AverageRating(ctx context.Context, dimension domain.RatingDimension, id string) (float64, error) {
	field := "seller_id"
	if dimension == domain.DimensionProductVariant {
		field = "product_variant_id"
	}
	r.logger.Debug("Calculating average rating", zap.String("field", field), zap.String("id", id))

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: field, Value: id}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "average_rating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to aggregate average rating", zap.Error(err), zap.String("id", id))
		return 0, fmt.Errorf("db aggregate failed: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		AverageRating float64 `bson:"average_rating"`
	}
	if err = cursor.All(ctx, &results); err != nil {
		r.logger.Error("Failed to decode average rating aggregation result", zap.Error(err))
		return 0, fmt.Errorf("db cursor all for aggregate failed: %w", err)
	}

	if len(results) == 0 {
		return 0, nil
	}
	return results[0].AverageRating, nil
}

// DeleteByCustomer removes all reviews authored by the customer.
func (r *ReviewRepository) DeleteByCustomer(ctx context.Context, customerID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"customer_id": customerID})
	if err != nil {
		r.logger.Error("Failed to delete reviews by customer", zap.Error(err), zap.String("customer_id", customerID))
		return 0, fmt.Errorf("db delete many failed: %w", err)
	}
	return result.DeletedCount, nil
}

// DeleteByProductVariant removes all reviews of the variant.
func (r *ReviewRepository) DeleteByProductVariant(ctx context.Context, productVariantID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"product_variant_id": productVariantID})
	if err != nil {
		r.logger.Error("Failed to delete reviews by product variant", zap.Error(err), zap.String("product_variant_id", productVariantID))
		return 0, fmt.Errorf("db delete many failed: %w", err)
	}
	return result.DeletedCount, nil
}

// lookupStages builds $lookup/$unwind stages for the requested relations.
// Unwind preserves reviews whose related document is gone.
func lookupStages(relations []string) []bson.D {
	var stages []bson.D
	for _, rel := range relations {
		spec, ok := relationLookups[rel]
		if !ok {
			continue
		}
		stages = append(stages,
			bson.D{{Key: "$lookup", Value: bson.D{
				{Key: "from", Value: spec.from},
				{Key: "localField", Value: spec.localField},
				{Key: "foreignField", Value: "_id"},
				{Key: "as", Value: spec.as},
			}}},
			bson.D{{Key: "$unwind", Value: bson.D{
				{Key: "path", Value: "$" + spec.as},
				{Key: "preserveNullAndEmptyArrays", Value: true},
			}}},
		)
	}
	return stages
}

func listFilter(opts domain.ListOptions) bson.M {
	filter := bson.M{}
	if opts.SellerID != "" {
		filter["seller_id"] = opts.SellerID
	}
	if opts.ProductVariantID != "" {
		filter["product_variant_id"] = opts.ProductVariantID
	}
	if opts.CustomerID != "" {
		filter["customer_id"] = opts.CustomerID
	}
	if opts.OrderID != "" {
		filter["order_id"] = opts.OrderID
	}
	if opts.MinRating != nil || opts.MaxRating != nil {
		ratingFilter := bson.M{}
		if opts.MinRating != nil {
			ratingFilter["$gte"] = *opts.MinRating
		}
		if opts.MaxRating != nil {
			ratingFilter["$lte"] = *opts.MaxRating
		}
		filter["rating"] = ratingFilter
	}
	return filter
}

func sortSpec(opts domain.ListOptions) bson.D {
	field := "created_at"
	switch opts.SortBy {
	case "rating":
		field = "rating"
	case "updated_at":
		field = "updated_at"
	}
	order := -1 // newest first by default
	if opts.SortOrder == domain.SortAsc {
		order = 1
	}
	return bson.D{{Key: field, Value: order}}
}
