package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderbill/internal/sku"
	"gorm.io/datatypes"
)

// ChargeType selects the pricing strategy of a Service.
type ChargeType string

const (
	ChargeTypeSingle        ChargeType = "single"
	ChargeTypeQuantity      ChargeType = "quantity"
	ChargeTypeCaseBasedTier ChargeType = "case_based_tier"
)

func ParseChargeType(raw string) (ChargeType, bool) {
	switch ct := ChargeType(strings.ToLower(strings.TrimSpace(raw))); ct {
	case ChargeTypeSingle, ChargeTypeQuantity, ChargeTypeCaseBasedTier:
		return ct, true
	default:
		return "", false
	}
}

type Service struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	Name       string       `gorm:"type:text;not null" json:"name"`
	ChargeType ChargeType   `gorm:"type:text;not null" json:"charge_type"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Service) TableName() string { return "services" }

// CustomerService prices one Service for one customer.
type CustomerService struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	CustomerID snowflake.ID    `gorm:"not null;uniqueIndex:ux_customer_services_customer_service,priority:1" json:"customer_id"`
	ServiceID  snowflake.ID    `gorm:"not null;uniqueIndex:ux_customer_services_customer_service,priority:2" json:"service_id"`
	UnitPrice  decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	SKUs       datatypes.JSON  `gorm:"column:skus" json:"skus,omitempty"`
	Service    *Service        `gorm:"foreignKey:ServiceID" json:"service,omitempty"`
	CreatedAt  time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"not null" json:"updated_at"`
}

func (CustomerService) TableName() string { return "customer_services" }

// AssignedSKUs returns the normalised SKU scope, empty when unscoped or when
// the stored list is unreadable.
func (cs CustomerService) AssignedSKUs() []string {
	if len(cs.SKUs) == 0 {
		return nil
	}
	var raw []string
	if err := json.Unmarshal(cs.SKUs, &raw); err != nil {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		key := sku.Normalize(v)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func (cs CustomerService) IsSKUScoped() bool {
	return len(cs.AssignedSKUs()) > 0
}

func (cs CustomerService) ChargeType() ChargeType {
	if cs.Service == nil {
		return ""
	}
	return cs.Service.ChargeType
}

func (cs CustomerService) ServiceName() string {
	if cs.Service == nil {
		return ""
	}
	return cs.Service.Name
}
