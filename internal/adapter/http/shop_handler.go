package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/markethub/review-service/internal/domain"
	"github.com/markethub/review-service/internal/middleware"
	"github.com/markethub/review-service/internal/platform/logger"
	"github.com/markethub/review-service/internal/platform/metrics"
	"github.com/markethub/review-service/internal/usecase"
)

// ShopHandler serves the storefront review surface. Every operation acts
// on behalf of the authenticated customer; mutations are limited to that
// customer's own reviews.
type ShopHandler struct {
	uc       *usecase.ReviewUsecase
	validate *validator.Validate
	metrics  *metrics.Manager
	logger   *logger.Logger
}

func NewShopHandler(uc *usecase.ReviewUsecase, m *metrics.Manager, log *logger.Logger) *ShopHandler {
	return &ShopHandler{
		uc:       uc,
		validate: validator.New(),
		metrics:  m,
		logger:   log.Named("ShopHandler"),
	}
}

// CreateReview handles POST /shop-api/reviews.
func (h *ShopHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeForbidden(w, r, h.metrics, "customer identity is required")
		return
	}

	var req CreateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, h.metrics, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, r, h.metrics, err)
		return
	}

	review, err := h.uc.Create(r.Context(), customerID, usecase.CreateReviewInput{
		Rating:           req.Rating,
		Comment:          req.Comment,
		OrderID:          req.OrderID,
		ProductVariantID: req.ProductVariantID,
		SellerID:         req.SellerID,
	})
	if err != nil {
		writeDomainError(w, r, h.metrics, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ReviewsCreatedTotal.Inc()
	}
	writeJSON(w, http.StatusCreated, response{Data: toReviewResponse(review)})
}

// GetMyReviews handles GET /shop-api/reviews: the authenticated
// customer's own reviews, newest first.
func (h *ShopHandler) GetMyReviews(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeForbidden(w, r, h.metrics, "customer identity is required")
		return
	}

	opts, relations, err := parseListQuery(r)
	if err != nil {
		writeBadRequest(w, r, h.metrics, err.Error())
		return
	}
	// The customer filter is pinned to the requesting identity.
	opts.CustomerID = customerID

	list, err := h.uc.FindAll(r.Context(), opts, relations)
	if err != nil {
		writeDomainError(w, r, h.metrics, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: toListResponse(list)})
}

// UpdateReview handles PUT /shop-api/reviews/{id}. Only the review's
// author may change it.
func (h *ShopHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeForbidden(w, r, h.metrics, "customer identity is required")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, r, h.metrics, "invalid review id format")
		return
	}

	existing, err := h.uc.FindOne(r.Context(), id, nil)
	if err != nil {
		writeDomainError(w, r, h.metrics, h.logger, err)
		return
	}
	if existing == nil {
		writeNotFound(w, r, h.metrics, "review not found")
		return
	}
	if existing.CustomerID != customerID {
		h.logger.Warn("Customer attempted to update another customer's review",
			zap.String("customer_id", customerID),
			zap.String("review_id", id.Hex()))
		writeForbidden(w, r, h.metrics, "you can only modify your own reviews")
		return
	}

	var req UpdateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, r, h.metrics, "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, r, h.metrics, err)
		return
	}

	updated, err := h.uc.Update(r.Context(), usecase.UpdateReviewInput{
		ID:      id,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		writeDomainError(w, r, h.metrics, h.logger, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ReviewUpdatesTotal.Inc()
	}
	writeJSON(w, http.StatusOK, response{Data: toReviewResponse(updated)})
}

// DeleteReview handles DELETE /shop-api/reviews/{id}. Deletion reports
// an outcome instead of failing: a missing or malformed id yields a
// NOT_DELETED result with a message.
func (h *ShopHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	customerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeForbidden(w, r, h.metrics, "customer identity is required")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusOK, response{Data: DeletionResponseDTO{
			Result:  string(domain.DeletionResultNotDeleted),
			Message: "failed to delete review: invalid review id format",
		}})
		return
	}

	// Ownership gate applies only when the review exists and belongs to
	// someone else; absence and lookup faults fall through to the
	// NOT_DELETED outcome, keeping the deletion contract failure-free.
	existing, err := h.uc.FindOne(r.Context(), id, nil)
	if err != nil {
		h.logger.Error("Review lookup before deletion failed", zap.Error(err), zap.String("review_id", id.Hex()))
		writeJSON(w, http.StatusOK, response{Data: DeletionResponseDTO{
			Result:  string(domain.DeletionResultNotDeleted),
			Message: "failed to delete review: lookup failed",
		}})
		return
	}
	if existing != nil && existing.CustomerID != customerID {
		h.logger.Warn("Customer attempted to delete another customer's review",
			zap.String("customer_id", customerID),
			zap.String("review_id", id.Hex()))
		writeForbidden(w, r, h.metrics, "you can only delete your own reviews")
		return
	}

	res := h.uc.Delete(r.Context(), id)
	if h.metrics != nil && res.Result == domain.DeletionResultDeleted {
		h.metrics.ReviewDeletesTotal.Inc()
	}
	writeJSON(w, http.StatusOK, response{Data: toDeletionResponse(res)})
}
