package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/customerservice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertService(ctx context.Context, db *gorm.DB, svc *domain.Service) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO services (id, name, charge_type, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		svc.ID,
		svc.Name,
		svc.ChargeType,
		svc.CreatedAt,
		svc.UpdatedAt,
	).Error
}

func (r *repo) FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Service, error) {
	var svc domain.Service
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, charge_type, created_at, updated_at FROM services WHERE id = ?`,
		id,
	).Scan(&svc).Error
	if err != nil {
		return nil, err
	}
	if svc.ID == 0 {
		return nil, nil
	}
	return &svc, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cs *domain.CustomerService) error {
	return db.WithContext(ctx).Omit("Service").Create(cs).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CustomerService, error) {
	var cs domain.CustomerService
	err := db.WithContext(ctx).Preload("Service").Where("id = ?", id).First(&cs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cs, nil
}

func (r *repo) FindByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, ids []snowflake.ID) ([]domain.CustomerService, error) {
	if ids != nil && len(ids) == 0 {
		return []domain.CustomerService{}, nil
	}

	stmt := db.WithContext(ctx).
		Preload("Service").
		Where("customer_id = ?", customerID)
	if ids != nil {
		stmt = stmt.Where("id IN ?", ids)
	}

	var items []domain.CustomerService
	if err := stmt.Order("id asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
