package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/markethub/review-service/internal/domain"
)

// parseListQuery translates list query parameters into domain list
// options plus the relation names to hydrate.
func parseListQuery(r *http.Request) (domain.ListOptions, []string, error) {
	q := r.URL.Query()
	opts := domain.ListOptions{
		SellerID:         q.Get("sellerId"),
		ProductVariantID: q.Get("productVariantId"),
		CustomerID:       q.Get("customerId"),
		OrderID:          q.Get("orderId"),
		SortBy:           q.Get("sortBy"),
	}

	var err error
	if opts.Skip, err = parseInt64Param(q.Get("skip"), "skip"); err != nil {
		return opts, nil, err
	}
	if opts.Take, err = parseInt64Param(q.Get("take"), "take"); err != nil {
		return opts, nil, err
	}
	if opts.MinRating, err = parseRatingParam(q.Get("minRating"), "minRating"); err != nil {
		return opts, nil, err
	}
	if opts.MaxRating, err = parseRatingParam(q.Get("maxRating"), "maxRating"); err != nil {
		return opts, nil, err
	}

	switch strings.ToLower(q.Get("sortOrder")) {
	case "", "desc":
		opts.SortOrder = domain.SortDesc
	case "asc":
		opts.SortOrder = domain.SortAsc
	default:
		return opts, nil, fmt.Errorf("query parameter 'sortOrder' must be 'asc' or 'desc'")
	}

	return opts, parseRelations(r), nil
}

func parseRelations(r *http.Request) []string {
	raw := r.URL.Query().Get("relations")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	relations := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			relations = append(relations, p)
		}
	}
	return relations
}

func parseInt64Param(raw, name string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("query parameter '%s' must be an integer", name)
	}
	return v, nil
}

func parseRatingParam(raw, name string) (*int32, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("query parameter '%s' must be an integer", name)
	}
	r := int32(v)
	return &r, nil
}
