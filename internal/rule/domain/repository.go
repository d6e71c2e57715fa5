package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository interface {
	// InsertGroup stores the group together with its rules.
	InsertGroup(ctx context.Context, db *gorm.DB, group *RuleGroup) error
	// FindGroupsByCustomerServices loads every group of the given assignments
	// with its rules, ordered by id.
	FindGroupsByCustomerServices(ctx context.Context, db *gorm.DB, customerServiceIDs []snowflake.ID) ([]RuleGroup, error)
	FindRuleByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Rule, error)
	UpdateAdvanced(ctx context.Context, db *gorm.DB, id snowflake.ID, tierConfig datatypes.JSON) error
}
