package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const UnitEach = "each"

// Product is a customer's catalog entry. SKU is stored normalised.
type Product struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID `gorm:"not null;uniqueIndex:ux_products_customer_sku,priority:1" json:"customer_id"`
	SKU        string       `gorm:"column:sku;type:text;not null;uniqueIndex:ux_products_customer_sku,priority:2" json:"sku"`
	Name       string       `gorm:"type:text" json:"name"`
	CaseSize   int64        `gorm:"not null;default:1" json:"case_size"`
	Unit       string       `gorm:"type:text;not null;default:'each'" json:"unit"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
}

func (Product) TableName() string { return "products" }

// UnitsPerCase is CaseSize when the product is sold by caseLabel, else 1.
func (p Product) UnitsPerCase(caseLabel string) int64 {
	if p.CaseSize <= 0 || !strings.EqualFold(strings.TrimSpace(p.Unit), caseLabel) {
		return 1
	}
	return p.CaseSize
}
