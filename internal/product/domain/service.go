package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateProductRequest struct {
	CustomerID string `json:"customer_id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	CaseSize   int64  `json:"case_size"`
	Unit       string `json:"unit"`
}

// Catalog resolves products for the pick cost paths. The returned map is
// keyed by normalised SKU; SKUs without a product are absent.
type Catalog interface {
	FindBySKUs(ctx context.Context, customerID snowflake.ID, skus []string) (map[string]Product, error)
}

type Service interface {
	Catalog
	Create(ctx context.Context, req CreateProductRequest) (Product, error)
}

var (
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidSKU      = errors.New("invalid_sku")
	ErrInvalidCaseSize = errors.New("invalid_case_size")
	ErrDuplicateSKU    = errors.New("duplicate_sku")
)
