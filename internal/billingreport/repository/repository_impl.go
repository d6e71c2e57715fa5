package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/orderbill/internal/billingreport/domain"
	"github.com/smallbiznis/orderbill/pkg/db/option"
	"github.com/smallbiznis/orderbill/pkg/repository"
	"gorm.io/gorm"
)

const insertBatchSize = 200

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, report *domain.BillingReport) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("OrderCosts").Create(report).Error; err != nil {
			return err
		}

		orders := make([]*domain.OrderCost, 0, len(report.OrderCosts))
		costs := make([]*domain.ServiceCost, 0, len(report.OrderCosts))
		for i := range report.OrderCosts {
			oc := &report.OrderCosts[i]
			oc.BillingReportID = report.ID
			orders = append(orders, oc)
			for j := range oc.ServiceCosts {
				oc.ServiceCosts[j].OrderCostID = oc.ID
				costs = append(costs, &oc.ServiceCosts[j])
			}
		}

		orderStore := repository.ProvideStore[domain.OrderCost](tx.Omit("ServiceCosts"))
		for _, chunk := range lo.Chunk(orders, insertBatchSize) {
			if err := orderStore.BatchCreate(ctx, chunk); err != nil {
				return err
			}
		}
		costStore := repository.ProvideStore[domain.ServiceCost](tx)
		for _, chunk := range lo.Chunk(costs, insertBatchSize) {
			if err := costStore.BatchCreate(ctx, chunk); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.BillingReport, error) {
	return repository.ProvideStore[domain.BillingReport](db).FindOne(ctx, nil,
		option.WithWhere("id = ?", id),
		option.WithPreload("OrderCosts", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_date asc, id asc")
		}),
		option.WithPreload("OrderCosts.ServiceCosts", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}),
	)
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, limit int) ([]*domain.BillingReport, error) {
	return repository.ProvideStore[domain.BillingReport](db).Find(ctx, nil,
		option.WithWhere("customer_id = ?", customerID),
		option.WithOrder("created_at desc, id desc"),
		option.WithLimit(limit),
	)
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderIDs := tx.Model(&domain.OrderCost{}).Select("id").Where("billing_report_id = ?", id)
		if err := tx.Where("order_cost_id IN (?)", orderIDs).Delete(&domain.ServiceCost{}).Error; err != nil {
			return err
		}
		if err := tx.Where("billing_report_id = ?", id).Delete(&domain.OrderCost{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.BillingReport{}).Error
	})
}
