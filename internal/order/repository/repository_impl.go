package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, start, end time.Time) ([]domain.Order, error) {
	from := startOfDay(start)
	until := startOfDay(end).AddDate(0, 0, 1)

	var orders []domain.Order
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Where("close_date >= ? AND close_date < ?", from, until).
		Order("close_date asc, id asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
