package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/product/domain"
	"github.com/smallbiznis/orderbill/pkg/db/option"
	"github.com/smallbiznis/orderbill/pkg/repository"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return repository.ProvideStore[domain.Product](db).Create(ctx, product)
}

func (r *repo) FindBySKUs(ctx context.Context, db *gorm.DB, customerID snowflake.ID, skus []string) ([]*domain.Product, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	return repository.ProvideStore[domain.Product](db).Find(ctx,
		&domain.Product{CustomerID: customerID},
		option.WithWhere("sku IN ?", skus),
		option.WithOrder("sku asc"),
	)
}
