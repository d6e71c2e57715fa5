package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertService(ctx context.Context, db *gorm.DB, svc *Service) error
	FindServiceByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Service, error)
	Insert(ctx context.Context, db *gorm.DB, cs *CustomerService) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CustomerService, error)
	// FindByCustomer loads assignments with their Service, ordered by id.
	// A nil ids slice means every assignment of the customer.
	FindByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, ids []snowflake.ID) ([]CustomerService, error)
}
