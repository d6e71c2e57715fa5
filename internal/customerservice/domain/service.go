package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateServiceRequest struct {
	Name       string `json:"name"`
	ChargeType string `json:"charge_type"`
}

type CreateCustomerServiceRequest struct {
	CustomerID string          `json:"customer_id"`
	ServiceID  string          `json:"service_id"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	SKUs       []string        `json:"skus"`
}

type Manager interface {
	CreateService(ctx context.Context, req CreateServiceRequest) (Service, error)
	CreateCustomerService(ctx context.Context, req CreateCustomerServiceRequest) (CustomerService, error)
	GetCustomerService(ctx context.Context, id string) (CustomerService, error)
	ListByCustomer(ctx context.Context, customerID string) ([]CustomerService, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidChargeType   = errors.New("invalid_charge_type")
	ErrInvalidUnitPrice    = errors.New("invalid_unit_price")
	ErrServiceNotFound     = errors.New("service_not_found")
	ErrCustomerNotFound    = errors.New("customer_not_found")
	ErrNotFound            = errors.New("not_found")
	ErrDuplicateAssignment = errors.New("duplicate_customer_service")
)
