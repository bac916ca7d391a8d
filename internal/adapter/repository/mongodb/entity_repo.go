package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/domain"
	"github.com/markethub/review-service/internal/platform/logger"
)

// Read models of the entities referenced by reviews. The order and
// catalog services own these collections; this service only reads them.
const (
	orderCollectionName    = "orders"
	variantCollectionName  = "product_variants"
	sellerCollectionName   = "sellers"
	customerCollectionName = "customers"
)

type orderDocument struct {
	ID         string    `bson:"_id"`
	CustomerID string    `bson:"customer_id"`
	State      string    `bson:"state"`
	Total      float64   `bson:"total,omitempty"`
	PlacedAt   time.Time `bson:"placed_at,omitempty"`
}

func (doc *orderDocument) toDomain() *domain.Order {
	return &domain.Order{
		ID:         doc.ID,
		CustomerID: doc.CustomerID,
		State:      domain.OrderState(doc.State),
		Total:      doc.Total,
		PlacedAt:   doc.PlacedAt,
	}
}

type variantDocument struct {
	ID        string `bson:"_id"`
	ProductID string `bson:"product_id,omitempty"`
	SKU       string `bson:"sku,omitempty"`
	Name      string `bson:"name,omitempty"`
	SellerID  string `bson:"seller_id,omitempty"`
}

func (doc *variantDocument) toDomain() *domain.ProductVariant {
	return &domain.ProductVariant{
		ID:        doc.ID,
		ProductID: doc.ProductID,
		SKU:       doc.SKU,
		Name:      doc.Name,
		SellerID:  doc.SellerID,
	}
}

type sellerDocument struct {
	ID   string `bson:"_id"`
	Name string `bson:"name,omitempty"`
}

func (doc *sellerDocument) toDomain() *domain.Seller {
	return &domain.Seller{ID: doc.ID, Name: doc.Name}
}

type customerDocument struct {
	ID           string `bson:"_id"`
	FirstName    string `bson:"first_name,omitempty"`
	LastName     string `bson:"last_name,omitempty"`
	EmailAddress string `bson:"email_address,omitempty"`
}

func (doc *customerDocument) toDomain() *domain.Customer {
	return &domain.Customer{
		ID:           doc.ID,
		FirstName:    doc.FirstName,
		LastName:     doc.LastName,
		EmailAddress: doc.EmailAddress,
	}
}

// OrderRepository implements domain.OrderRepository.
type OrderRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewOrderRepository creates a read-only order repository.
func NewOrderRepository(db *mongo.Database, log *logger.Logger) *OrderRepository {
	return &OrderRepository{
		collection: db.Collection(orderCollectionName),
		logger:     log.Named("OrderRepository"),
	}
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Warn("Order not found in DB", zap.String("order_id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get order by ID from DB", zap.Error(err), zap.String("order_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// ProductVariantRepository implements domain.ProductVariantRepository.
type ProductVariantRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewProductVariantRepository creates a read-only variant repository.
func NewProductVariantRepository(db *mongo.Database, log *logger.Logger) *ProductVariantRepository {
	return &ProductVariantRepository{
		collection: db.Collection(variantCollectionName),
		logger:     log.Named("ProductVariantRepository"),
	}
}

func (r *ProductVariantRepository) GetByID(ctx context.Context, id string) (*domain.ProductVariant, error) {
	var doc variantDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Warn("Product variant not found in DB", zap.String("product_variant_id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get product variant by ID from DB", zap.Error(err), zap.String("product_variant_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}

// SellerRepository implements domain.SellerRepository.
type SellerRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

// NewSellerRepository creates a read-only seller repository.
func NewSellerRepository(db *mongo.Database, log *logger.Logger) *SellerRepository {
	return &SellerRepository{
		collection: db.Collection(sellerCollectionName),
		logger:     log.Named("SellerRepository"),
	}
}

func (r *SellerRepository) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	var doc sellerDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Warn("Seller not found in DB", zap.String("seller_id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get seller by ID from DB", zap.Error(err), zap.String("seller_id", id))
		return nil, fmt.Errorf("db findone failed: %w", err)
	}
	return doc.toDomain(), nil
}
