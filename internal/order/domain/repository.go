package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	// FindByCustomer returns orders closed on any day from start through end,
	// oldest first.
	FindByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, start, end time.Time) ([]Order, error)
}
