package http

import (
	"time"

	"github.com/markethub/review-service/internal/domain"
)

// CreateReviewRequest is the shop-side payload for leaving a review.
type CreateReviewRequest struct {
	Rating           int32  `json:"rating" validate:"required,min=1,max=5"`
	Comment          string `json:"comment" validate:"required"`
	OrderID          string `json:"orderId" validate:"required"`
	ProductVariantID string `json:"productVariantId" validate:"required"`
	SellerID         string `json:"sellerId" validate:"required"`
}

// UpdateReviewRequest patches a review. Absent fields keep their value.
type UpdateReviewRequest struct {
	Rating  *int32  `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment"`
}

type ReviewResponse struct {
	ID               string    `json:"id"`
	Rating           int32     `json:"rating"`
	Comment          string    `json:"comment"`
	CustomerID       string    `json:"customerId"`
	ProductVariantID string    `json:"productVariantId"`
	OrderID          string    `json:"orderId"`
	SellerID         string    `json:"sellerId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`

	Customer       *CustomerResponse       `json:"customer,omitempty"`
	ProductVariant *ProductVariantResponse `json:"productVariant,omitempty"`
	Order          *OrderResponse          `json:"order,omitempty"`
	Seller         *SellerResponse         `json:"seller,omitempty"`
}

type CustomerResponse struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
}

type ProductVariantResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"productId"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	SellerID  string `json:"sellerId"`
}

type OrderResponse struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customerId"`
	State      string    `json:"state"`
	Total      float64   `json:"total"`
	PlacedAt   time.Time `json:"placedAt"`
}

type SellerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListReviewsResponse struct {
	Items      []ReviewResponse `json:"items"`
	TotalItems int64            `json:"totalItems"`
}

type AverageRatingResponse struct {
	AverageRating float64 `json:"averageRating"`
}

type DeletionResponseDTO struct {
	Result  string `json:"result"`
	Message string `json:"message,omitempty"`
}

func toReviewResponse(review *domain.Review) ReviewResponse {
	resp := ReviewResponse{
		ID:               review.ID.Hex(),
		Rating:           review.Rating,
		Comment:          review.Comment,
		CustomerID:       review.CustomerID,
		ProductVariantID: review.ProductVariantID,
		OrderID:          review.OrderID,
		SellerID:         review.SellerID,
		CreatedAt:        review.CreatedAt,
		UpdatedAt:        review.UpdatedAt,
	}
	if review.Customer != nil {
		resp.Customer = &CustomerResponse{
			ID:           review.Customer.ID,
			FirstName:    review.Customer.FirstName,
			LastName:     review.Customer.LastName,
			EmailAddress: review.Customer.EmailAddress,
		}
	}
	if review.ProductVariant != nil {
		resp.ProductVariant = &ProductVariantResponse{
			ID:        review.ProductVariant.ID,
			ProductID: review.ProductVariant.ProductID,
			SKU:       review.ProductVariant.SKU,
			Name:      review.ProductVariant.Name,
			SellerID:  review.ProductVariant.SellerID,
		}
	}
	if review.Order != nil {
		resp.Order = &OrderResponse{
			ID:         review.Order.ID,
			CustomerID: review.Order.CustomerID,
			State:      string(review.Order.State),
			Total:      review.Order.Total,
			PlacedAt:   review.Order.PlacedAt,
		}
	}
	if review.Seller != nil {
		resp.Seller = &SellerResponse{
			ID:   review.Seller.ID,
			Name: review.Seller.Name,
		}
	}
	return resp
}

func toListResponse(list *domain.PaginatedList) ListReviewsResponse {
	items := make([]ReviewResponse, 0, len(list.Items))
	for _, review := range list.Items {
		items = append(items, toReviewResponse(review))
	}
	return ListReviewsResponse{Items: items, TotalItems: list.TotalItems}
}

func toDeletionResponse(res domain.DeletionResponse) DeletionResponseDTO {
	return DeletionResponseDTO{Result: string(res.Result), Message: res.Message}
}
