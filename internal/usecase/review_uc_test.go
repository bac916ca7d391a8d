package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markethub/review-service/internal/domain"
	"github.com/markethub/review-service/internal/platform/logger"
)

type MockReviewRepository struct{ mock.Mock }

func (m *MockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}
func (m *MockReviewRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}
func (m *MockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}
func (m *MockReviewRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockReviewRepository) FindOne(ctx context.Context, id primitive.ObjectID, relations []string) (*domain.Review, error) {
	args := m.Called(ctx, id, relations)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}
func (m *MockReviewRepository) FindAll(ctx context.Context, opts domain.ListOptions, relations []string) ([]*domain.Review, int64, error) {
	args := m.Called(ctx, opts, relations)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*domain.Review), args.Get(1).(int64), args.Error(2)
}
func (m *MockReviewRepository) AverageRating(ctx context.Context, dimension domain.RatingDimension, id string) (float64, error) {
	args := m.Called(ctx, dimension, id)
	return args.Get(0).(float64), args.Error(1)
}
func (m *MockReviewRepository) DeleteByCustomer(ctx context.Context, customerID string) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockReviewRepository) DeleteByProductVariant(ctx context.Context, productVariantID string) (int64, error) {
	args := m.Called(ctx, productVariantID)
	return args.Get(0).(int64), args.Error(1)
}

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type MockVariantRepository struct{ mock.Mock }

func (m *MockVariantRepository) GetByID(ctx context.Context, id string) (*domain.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductVariant), args.Error(1)
}

type MockSellerRepository struct{ mock.Mock }

func (m *MockSellerRepository) GetByID(ctx context.Context, id string) (*domain.Seller, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seller), args.Error(1)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type ucFixture struct {
	reviews  *MockReviewRepository
	orders   *MockOrderRepository
	variants *MockVariantRepository
	sellers  *MockSellerRepository
	events   *MockEventPublisher
	uc       *ReviewUsecase
}

func newFixture() *ucFixture {
	f := &ucFixture{
		reviews:  new(MockReviewRepository),
		orders:   new(MockOrderRepository),
		variants: new(MockVariantRepository),
		sellers:  new(MockSellerRepository),
		events:   new(MockEventPublisher),
	}
	f.uc = NewReviewUsecase(f.reviews, f.orders, f.variants, f.sellers, f.events, DefaultOptions(), logger.NewLogger())
	return f
}

const (
	testCustomerID = "cust-1"
	testOrderID    = "order-1"
	testVariantID  = "variant-1"
	testSellerID   = "seller-1"
)

func (f *ucFixture) expectReferences(order *domain.Order) {
	f.orders.On("GetByID", mock.Anything, testOrderID).Return(order, nil)
	f.variants.On("GetByID", mock.Anything, testVariantID).
		Return(&domain.ProductVariant{ID: testVariantID, SellerID: testSellerID}, nil)
	f.sellers.On("GetByID", mock.Anything, testSellerID).
		Return(&domain.Seller{ID: testSellerID, Name: "Acme"}, nil)
}

func validInput() CreateReviewInput {
	return CreateReviewInput{
		Rating:           4,
		Comment:          "Solid product",
		OrderID:          testOrderID,
		ProductVariantID: testVariantID,
		SellerID:         testSellerID,
	}
}

func TestCreate_Success(t *testing.T) {
	f := newFixture()
	f.expectReferences(&domain.Order{ID: testOrderID, CustomerID: testCustomerID, State: domain.OrderStateDelivered})
	f.reviews.On("Create", mock.Anything, mock.AnythingOfType("*domain.Review")).Return(nil)
	f.events.On("Publish", mock.Anything, "review.created", mock.Anything).Return(nil)

	review, err := f.uc.Create(context.Background(), testCustomerID, validInput())
	require.NoError(t, err)
	require.NotNil(t, review)
	assert.Equal(t, testCustomerID, review.CustomerID)
	assert.Equal(t, testVariantID, review.ProductVariantID)
	assert.Equal(t, testOrderID, review.OrderID)
	assert.Equal(t, testSellerID, review.SellerID)
	assert.Equal(t, int32(4), review.Rating)

	f.reviews.AssertExpectations(t)
	f.events.AssertExpectations(t)
}

func TestCreate_ZeroRating_InvalidInput(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.Rating = 0

	review, err := f.uc.Create(context.Background(), testCustomerID, input)
	require.Error(t, err)
	assert.Nil(t, review)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_OutOfRangeRating_InvalidInput(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.Rating = 6

	_, err := f.uc.Create(context.Background(), testCustomerID, input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreate_MissingReferenceIDs_InvalidInput(t *testing.T) {
	f := newFixture()
	input := validInput()
	input.SellerID = ""

	_, err := f.uc.Create(context.Background(), testCustomerID, input)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "missing required fields")
}

func TestCreate_OrderNotFound_KeepsClassification(t *testing.T) {
	f := newFixture()
	f.orders.On("GetByID", mock.Anything, testOrderID).Return(nil, domain.ErrNotFound)
	f.variants.On("GetByID", mock.Anything, testVariantID).
		Return(&domain.ProductVariant{ID: testVariantID}, nil).Maybe()
	f.sellers.On("GetByID", mock.Anything, testSellerID).
		Return(&domain.Seller{ID: testSellerID}, nil).Maybe()

	_, err := f.uc.Create(context.Background(), testCustomerID, validInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound), "not-found classification must survive wrapping")
	f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_NotOrderOwner_Forbidden(t *testing.T) {
	f := newFixture()
	f.expectReferences(&domain.Order{ID: testOrderID, CustomerID: "someone-else", State: domain.OrderStateDelivered})

	_, err := f.uc.Create(context.Background(), testCustomerID, validInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrForbidden))
	f.reviews.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_OrderNotDelivered_InvalidInput(t *testing.T) {
	f := newFixture()
	f.expectReferences(&domain.Order{ID: testOrderID, CustomerID: testCustomerID, State: domain.OrderStateShipped})

	_, err := f.uc.Create(context.Background(), testCustomerID, validInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreate_RepositoryFailure_ClassifiedAsRepository(t *testing.T) {
	f := newFixture()
	f.expectReferences(&domain.Order{ID: testOrderID, CustomerID: testCustomerID, State: domain.OrderStateDelivered})
	f.reviews.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("write conflict"))

	_, err := f.uc.Create(context.Background(), testCustomerID, validInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRepository))
	assert.False(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCreate_PublishFailureDoesNotFailCreate(t *testing.T) {
	f := newFixture()
	f.expectReferences(&domain.Order{ID: testOrderID, CustomerID: testCustomerID, State: domain.OrderStateDelivered})
	f.reviews.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.events.On("Publish", mock.Anything, "review.created", mock.Anything).Return(errors.New("nats down"))

	review, err := f.uc.Create(context.Background(), testCustomerID, validInput())
	require.NoError(t, err)
	require.NotNil(t, review)
}

func TestFindOne_AbsenceIsNilNotError(t *testing.T) {
	f := newFixture()
	id := primitive.NewObjectID()
	f.reviews.On("FindOne", mock.Anything, id, []string(nil)).Return(nil, domain.ErrNotFound)

	review, err := f.uc.FindOne(context.Background(), id, nil)
	require.NoError(t, err)
	assert.Nil(t, review)
}

func TestFindOne_RepositoryFault(t *testing.T) {
	f := newFixture()
	id := primitive.NewObjectID()
	f.reviews.On("FindOne", mock.Anything, id, []string(nil)).Return(nil, errors.New("socket closed"))

	_, err := f.uc.FindOne(context.Background(), id, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrRepository))
}

func TestFindAll_ClampsPageWindow(t *testing.T) {
	f := newFixture()
	f.reviews.On("FindAll", mock.Anything,
		mock.MatchedBy(func(opts domain.ListOptions) bool {
			return opts.Skip == 0 && opts.Take == DefaultOptions().MaxPageSize
		}), []string(nil)).Return([]*domain.Review{}, int64(0), nil)

	_, err := f.uc.FindAll(context.Background(), domain.ListOptions{Skip: -5, Take: 10_000}, nil)
	require.NoError(t, err)
	f.reviews.AssertExpectations(t)
}

func TestFindAll_DefaultsTake(t *testing.T) {
	f := newFixture()
	f.reviews.On("FindAll", mock.Anything,
		mock.MatchedBy(func(opts domain.ListOptions) bool {
			return opts.Take == DefaultOptions().DefaultPageSize
		}), []string(nil)).Return([]*domain.Review{}, int64(0), nil)

	list, err := f.uc.FindAll(context.Background(), domain.ListOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), list.TotalItems)
	assert.Empty(t, list.Items)
}

func TestAverageRating_Success(t *testing.T) {
	f := newFixture()
	f.reviews.On("AverageRating", mock.Anything, domain.DimensionSeller, testSellerID).Return(4.0, nil)

	avg, err := f.uc.AverageRating(context.Background(), domain.DimensionSeller, testSellerID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, avg, 0.0001)
}

func TestAverageRating_NoReviewsIsZero(t *testing.T) {
	f := newFixture()
	f.reviews.On("AverageRating", mock.Anything, domain.DimensionProductVariant, "empty-variant").Return(0.0, nil)

	avg, err := f.uc.AverageRating(context.Background(), domain.DimensionProductVariant, "empty-variant")
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
}

func TestAverageRating_UnknownDimension(t *testing.T) {
	f := newFixture()
	_, err := f.uc.AverageRating(context.Background(), domain.RatingDimension("order"), "x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestUpdate_PartialPatchKeepsOtherFields(t *testing.T) {
	f := newFixture()
	id := primitive.NewObjectID()
	stored := &domain.Review{ID: id, Rating: 3, Comment: "original", CustomerID: testCustomerID}

	f.reviews.On("GetByID", mock.Anything, id).Return(stored, nil)
	f.reviews.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.Review) bool {
		return r.Rating == 5 && r.Comment == "original"
	})).Return(nil)
	f.events.On("Publish", mock.Anything, "review.updated", mock.Anything).Return(nil)

	newRating := int32(5)
	updated, err := f.uc.Update(context.Background(), UpdateReviewInput{ID: id, Rating: &newRating})
	require.NoError(t, err)
	assert.Equal(t, int32(5), updated.Rating)
	assert.Equal(t, "original", updated.Comment)
	f.reviews.AssertExpectations(t)
}

func TestUpdate_InvalidRating(t *testing.T) {
	f := newFixture()
	bad := int32(0)
	_, err := f.uc.Update(context.Background(), UpdateReviewInput{ID: primitive.NewObjectID(), Rating: &bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	f.reviews.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture()
	id := primitive.NewObjectID()
	f.reviews.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	comment := "new"
	_, err := f.uc.Update(context.Background(), UpdateReviewInput{ID: id, Comment: &comment})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestDelete_Missing_NotDeletedOutcome(t *testing.T) {
	f := newFixture()
	id := primitive.NewObjectID()
	f.reviews.On("GetByID", mock.Anything, id).Return(nil, domain.ErrNotFound)

	res := f.uc.Delete(context.Background(), id)
	assert.Equal(t, domain.DeletionResultNotDeleted, res.Result)
	assert.Contains(t, res.Message, "failed to delete review")
	f.reviews.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDelete_Existing_DeletedOutcome(t *testing.T) {
	f := newFixture()
	id := primitive.NewObjectID()
	f.reviews.On("GetByID", mock.Anything, id).Return(&domain.Review{ID: id, CustomerID: testCustomerID}, nil)
	f.reviews.On("Delete", mock.Anything, id).Return(nil)
	f.events.On("Publish", mock.Anything, "review.deleted", mock.Anything).Return(nil)

	res := f.uc.Delete(context.Background(), id)
	assert.Equal(t, domain.DeletionResultDeleted, res.Result)
	assert.Empty(t, res.Message)
}

func TestDelete_RepositoryFailure_NotDeletedOutcome(t *testing.T) {
	f := newFixture()
	id := primitive.NewObjectID()
	f.reviews.On("GetByID", mock.Anything, id).Return(&domain.Review{ID: id}, nil)
	f.reviews.On("Delete", mock.Anything, id).Return(errors.New("connection reset"))

	res := f.uc.Delete(context.Background(), id)
	assert.Equal(t, domain.DeletionResultNotDeleted, res.Result)
	assert.Contains(t, res.Message, "connection reset")
}

func TestRemoveForCustomer(t *testing.T) {
	f := newFixture()
	f.reviews.On("DeleteByCustomer", mock.Anything, testCustomerID).Return(int64(3), nil)

	removed, err := f.uc.RemoveForCustomer(context.Background(), testCustomerID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	_, err = f.uc.RemoveForCustomer(context.Background(), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestRemoveForProductVariant(t *testing.T) {
	f := newFixture()
	f.reviews.On("DeleteByProductVariant", mock.Anything, testVariantID).Return(int64(2), nil)

	removed, err := f.uc.RemoveForProductVariant(context.Background(), testVariantID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
}
