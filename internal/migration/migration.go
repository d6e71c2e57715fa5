package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	billingreportdomain "github.com/smallbiznis/orderbill/internal/billingreport/domain"
	customerdomain "github.com/smallbiznis/orderbill/internal/customer/domain"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	orderdomain "github.com/smallbiznis/orderbill/internal/order/domain"
	productdomain "github.com/smallbiznis/orderbill/internal/product/domain"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
	"gorm.io/gorm"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Models lists every persisted model in dependency order.
func Models() []any {
	return []any{
		&customerdomain.Customer{},
		&productdomain.Product{},
		&orderdomain.Order{},
		&csdomain.Service{},
		&csdomain.CustomerService{},
		&ruledomain.RuleGroup{},
		&ruledomain.Rule{},
		&billingreportdomain.BillingReport{},
		&billingreportdomain.OrderCost{},
		&billingreportdomain.ServiceCost{},
	}
}

// Run brings the schema up to date. Postgres uses the embedded SQL
// migrations; other dialects are migrated from the models.
func Run(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	if conn.Dialector.Name() != "postgres" {
		if err := conn.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}

func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	src, err := Source()
	if err != nil {
		return err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Closing the migrator would close the shared *sql.DB.
	return nil
}

// Source opens the embedded SQL migrations.
func Source() (source.Driver, error) {
	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("create migration source: %w", err)
	}
	return src, nil
}
