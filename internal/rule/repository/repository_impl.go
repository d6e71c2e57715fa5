package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/rule/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertGroup(ctx context.Context, db *gorm.DB, group *domain.RuleGroup) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Rules").Create(group).Error; err != nil {
			return err
		}
		if len(group.Rules) == 0 {
			return nil
		}
		for i := range group.Rules {
			group.Rules[i].RuleGroupID = group.ID
		}
		return tx.Create(&group.Rules).Error
	})
}

func (r *repo) FindGroupsByCustomerServices(ctx context.Context, db *gorm.DB, customerServiceIDs []snowflake.ID) ([]domain.RuleGroup, error) {
	if len(customerServiceIDs) == 0 {
		return nil, nil
	}

	var groups []domain.RuleGroup
	err := db.WithContext(ctx).
		Preload("Rules", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id asc")
		}).
		Where("customer_service_id IN ?", customerServiceIDs).
		Order("id asc").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repo) FindRuleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Rule, error) {
	var rule domain.Rule
	err := db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *repo) UpdateAdvanced(ctx context.Context, db *gorm.DB, id snowflake.ID, tierConfig datatypes.JSON) error {
	return db.WithContext(ctx).Model(&domain.Rule{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"kind":        domain.KindAdvanced,
			"tier_config": tierConfig,
		}).Error
}
