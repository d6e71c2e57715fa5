package domain

import (
	"context"
	"time"
)

// GenerateRequest selects the orders and assignments to price. A nil
// CustomerServiceIDs selects every assignment; an empty one selects none.
type GenerateRequest struct {
	CustomerID         string    `json:"customer_id"`
	StartDate          time.Time `json:"start_date"`
	EndDate            time.Time `json:"end_date"`
	CustomerServiceIDs []string  `json:"customer_service_ids"`
}

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (*BillingReport, error)
	Get(ctx context.Context, id string) (*BillingReport, error)
	ListByCustomer(ctx context.Context, customerID string, limit int) ([]BillingReport, error)
	Delete(ctx context.Context, id string) error
}
