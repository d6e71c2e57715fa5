package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, product *Product) error
	FindBySKUs(ctx context.Context, db *gorm.DB, customerID snowflake.ID, skus []string) ([]*Product, error)
}
