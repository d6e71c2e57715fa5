package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	// Create stores the report with its order and service costs in one
	// transaction.
	Create(ctx context.Context, db *gorm.DB, report *BillingReport) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*BillingReport, error)
	// ListByCustomer returns reports without their order costs, newest first.
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, limit int) ([]*BillingReport, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
