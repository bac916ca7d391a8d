package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/markethub/review-service/internal/domain"
	"github.com/markethub/review-service/internal/platform/logger"
	"github.com/markethub/review-service/internal/platform/metrics"
	"github.com/markethub/review-service/internal/usecase"
)

// AdminHandler serves the administrative review surface: unrestricted
// lookup, listing, aggregation and mutation for operators.
type AdminHandler struct {
	uc       *usecase.ReviewUsecase
	validate *validator.Validate
	metrics  *metrics.Manager
	logger   *logger.Logger
}

func NewAdminHandler(uc *usecase.ReviewUsecase, m *metrics.Manager, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		uc:       uc,
		validate: validator.New(),
		metrics:  m,
		logger:   log.Named("AdminHandler"),
	}
}

// GetReview handles GET /admin-api/reviews/{id}.
func (h *AdminHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, r, h.metrics, "invalid review id format")
		return
	}

	review, err := h.uc.FindOne(r.Context(), id, parseRelations(r))
	if err != nil {
		writeDomainError(w, r, h.metrics, h.logger, err)
		return
	}
	if review == nil {
		writeNotFound(w, r, h.metrics, "review not found")
		return
	}
	writeJSON(w, http.StatusOK, response{Data: toReviewResponse(review)})
}

// ListReviews handles GET /admin-api/reviews.
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	opts, relations, err := parseListQuery(r)
	if err != nil {
		writeBadRequest(w, r, h.metrics, err.Error())
		return
	}

	list, err := h.uc.FindAll(r.Context(), opts, relations)
	if err != nil {
		writeDomainError(w, r, h.metrics, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: toListResponse(list)})
}

// SellerAverageRating handles GET /admin-api/sellers/{id}/average-rating.
func (h *AdminHandler) SellerAverageRating(w http.ResponseWriter, r *http.Request) {
	h.averageRating(w, r, domain.DimensionSeller)
}

// ProductVariantAverageRating handles
// GET /admin-api/product-variants/{id}/average-rating.
func (h *AdminHandler) ProductVariantAverageRating(w http.ResponseWriter, r *http.Request) {
	h.averageRating(w, r, domain.DimensionProductVariant)
}

func (h *AdminHandler) averageRating(w http.ResponseWriter, r *http.Request, dimension domain.RatingDimension) {
	avg, err := h.uc.AverageRating(r.Context(), dimension, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, h.metrics, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Data: AverageRatingResponse{AverageRating: avg}})
}

// UpdateReview handles PUT /admin-api/reviews/{id}. Admins may update any
// review regardless of author.
func (h *AdminHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, r, h.metrics, "invalid review id format")
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

// DeleteReview handles DELETE /admin-api/reviews/{id}.
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusOK, response{Data: DeletionResponseDTO{
			Result:  string(domain.DeletionResultNotDeleted),
			Message: "failed to delete review: invalid review id format",
		}})
		return
	}

	res := h.uc.Delete(r.Context(), id)
	if h.metrics != nil && res.Result == domain.DeletionResultDeleted {
		h.metrics.ReviewDeletesTotal.Inc()
	}
	writeJSON(w, http.StatusOK, response{Data: toDeletionResponse(res)})
}
