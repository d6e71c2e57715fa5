package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/sku"
	"gorm.io/datatypes"
)

// Order is a closed fulfilment order. The engine only reads it.
type Order struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID   `gorm:"not null;index:idx_orders_customer_close" json:"customer_id"`
	TransactionID   string         `gorm:"not null" json:"transaction_id"`
	ReferenceNumber string         `json:"reference_number"`
	CloseDate       time.Time      `gorm:"not null;index:idx_orders_customer_close" json:"close_date"`
	ShipToName      string         `json:"ship_to_name"`
	ShipToCompany   string         `json:"ship_to_company"`
	ShipToCity      string         `json:"ship_to_city"`
	ShipToState     string         `json:"ship_to_state"`
	ShipToCountry   string         `json:"ship_to_country"`
	Carrier         string         `json:"carrier"`
	Notes           string         `json:"notes"`
	WeightLb        *float64       `json:"weight_lb,omitempty"`
	LineItems       *int64         `json:"line_items,omitempty"`
	TotalItemQty    *int64         `json:"total_item_qty,omitempty"`
	VolumeCuft      *float64       `json:"volume_cuft,omitempty"`
	Packages        *int64         `json:"packages,omitempty"`
	SKUQuantity     datatypes.JSON `json:"sku_quantity,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (Order) TableName() string { return "orders" }

// FieldValue returns the attribute a rule addresses by name. Numeric
// attributes come back as float64; ok is false when the attribute is unset
// or unknown.
func (o *Order) FieldValue(field string) (any, bool) {
	switch field {
	case "weight_lb":
		return floatValue(o.WeightLb)
	case "line_items":
		return intValue(o.LineItems)
	case "total_item_qty":
		return intValue(o.TotalItemQty)
	case "volume_cuft":
		return floatValue(o.VolumeCuft)
	case "packages":
		return intValue(o.Packages)
	case "reference_number":
		return o.ReferenceNumber, true
	case "ship_to_name":
		return o.ShipToName, true
	case "ship_to_company":
		return o.ShipToCompany, true
	case "ship_to_city":
		return o.ShipToCity, true
	case "ship_to_state":
		return o.ShipToState, true
	case "ship_to_country":
		return o.ShipToCountry, true
	case "carrier":
		return o.Carrier, true
	case "notes":
		return o.Notes, true
	case "sku_quantity":
		if len(o.SKUQuantity) == 0 {
			return nil, false
		}
		return []byte(o.SKUQuantity), true
	default:
		return nil, false
	}
}

// Quantities parses the order's SKU payload.
func (o *Order) Quantities() sku.Quantities {
	return sku.ParseQuantities([]byte(o.SKUQuantity))
}

// ItemQuantity is total_item_qty, or 1 when the order does not carry it.
func (o *Order) ItemQuantity() int64 {
	if o.TotalItemQty == nil {
		return 1
	}
	return *o.TotalItemQty
}

// SKUCases is the per-SKU part of a CaseSummary.
type SKUCases struct {
	Quantity int64 `json:"quantity"`
	Cases    int64 `json:"cases"`
	Picks    int64 `json:"picks"`
}

type CaseSummary struct {
	TotalCases int64               `json:"total_cases"`
	TotalPicks int64               `json:"total_picks"`
	SKUs       map[string]SKUCases `json:"skus"`
}

// CaseSummary totals the case and pick counts of every SKU not in excluded.
// Excluded SKUs are compared after normalisation.
func (o *Order) CaseSummary(excluded []string) CaseSummary {
	skip := excludedSet(excluded)
	summary := CaseSummary{SKUs: map[string]SKUCases{}}
	for _, line := range sku.ParseLines([]byte(o.SKUQuantity)) {
		if _, ok := skip[line.SKU]; ok {
			continue
		}
		summary.SKUs[line.SKU] = SKUCases{
			Quantity: line.Quantity,
			Cases:    line.Cases,
			Picks:    line.Picks,
		}
		summary.TotalCases += line.Cases
		summary.TotalPicks += line.Picks
	}
	return summary
}

// HasOnlyExcludedSKUs is true when the order carries SKUs and all of them
// are excluded.
func (o *Order) HasOnlyExcludedSKUs(excluded []string) bool {
	lines := sku.ParseLines([]byte(o.SKUQuantity))
	if len(lines) == 0 {
		return false
	}
	skip := excludedSet(excluded)
	for _, line := range lines {
		if _, ok := skip[line.SKU]; !ok {
			return false
		}
	}
	return true
}

func excludedSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if key := sku.Normalize(v); key != "" {
			out[key] = struct{}{}
		}
	}
	return out
}

func floatValue(v *float64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func intValue(v *int64) (any, bool) {
	if v == nil {
		return nil, false
	}
	return float64(*v), true
}
