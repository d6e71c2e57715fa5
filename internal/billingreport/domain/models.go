// Package domain contains the billing report aggregate.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// BillingReport is the priced result of one customer over one date range.
// TotalAmount always equals the sum of ServiceTotals and the sum of the
// order totals.
type BillingReport struct {
	ID            snowflake.ID                       `gorm:"primaryKey" json:"id"`
	CustomerID    snowflake.ID                       `gorm:"not null;index" json:"customer_id"`
	CustomerName  string                             `gorm:"type:text" json:"customer_name"`
	StartDate     time.Time                          `gorm:"not null" json:"start_date"`
	EndDate       time.Time                          `gorm:"not null" json:"end_date"`
	TotalAmount   decimal.Decimal                    `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	ServiceTotals ServiceTotals                      `gorm:"not null" json:"service_totals"`
	Metadata      datatypes.JSONType[ReportMetadata] `json:"metadata"`
	OrderCosts    []OrderCost                        `gorm:"foreignKey:BillingReportID" json:"order_costs,omitempty"`
	CreatedAt     time.Time                          `gorm:"not null" json:"created_at"`
}

func (BillingReport) TableName() string { return "billing_reports" }

// ReportMetadata records the request a report was generated from. A nil
// CustomerServiceIDs means every assignment was requested.
type ReportMetadata struct {
	CustomerServiceIDs *[]string `json:"customer_service_ids"`
}

type OrderCost struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	BillingReportID snowflake.ID    `gorm:"not null;index" json:"billing_report_id"`
	OrderID         snowflake.ID    `gorm:"not null" json:"order_id"`
	TransactionID   string          `gorm:"type:text" json:"transaction_id"`
	ReferenceNumber string          `gorm:"type:text" json:"reference_number"`
	OrderDate       time.Time       `gorm:"not null" json:"order_date"`
	TotalAmount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	ServiceCosts    []ServiceCost   `gorm:"foreignKey:OrderCostID" json:"service_costs"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
}

func (OrderCost) TableName() string { return "order_costs" }

func (oc *OrderCost) AddServiceCost(sc ServiceCost) {
	sc.OrderCostID = oc.ID
	oc.ServiceCosts = append(oc.ServiceCosts, sc)
	oc.TotalAmount = oc.TotalAmount.Add(sc.Amount)
}

type ServiceCost struct {
	ID                snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrderCostID       snowflake.ID    `gorm:"not null;index" json:"order_cost_id"`
	CustomerServiceID snowflake.ID    `gorm:"not null" json:"customer_service_id"`
	ServiceID         snowflake.ID    `gorm:"not null" json:"service_id"`
	ServiceName       string          `gorm:"type:text" json:"service_name"`
	Amount            decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
}

func (ServiceCost) TableName() string { return "service_costs" }

type ServiceTotal struct {
	ServiceID   snowflake.ID    `json:"service_id"`
	ServiceName string          `json:"service_name"`
	Amount      decimal.Decimal `json:"amount"`
}

// ServiceTotals is keyed by service id.
type ServiceTotals map[string]ServiceTotal

func (t ServiceTotals) Add(sc ServiceCost) {
	key := sc.ServiceID.String()
	total, ok := t[key]
	if !ok {
		total = ServiceTotal{ServiceID: sc.ServiceID, ServiceName: sc.ServiceName, Amount: decimal.Zero}
	}
	total.Amount = total.Amount.Add(sc.Amount)
	t[key] = total
}

func (t ServiceTotals) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range t {
		sum = sum.Add(v.Amount)
	}
	return sum
}

// Sorted returns the totals ordered by service name, then id.
func (t ServiceTotals) Sorted() []ServiceTotal {
	out := make([]ServiceTotal, 0, len(t))
	for _, v := range t {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ServiceName != out[j].ServiceName {
			return out[i].ServiceName < out[j].ServiceName
		}
		return out[i].ServiceID < out[j].ServiceID
	})
	return out
}

func (t ServiceTotals) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *ServiceTotals) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = ServiceTotals{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported service totals type %T", src)
	}
	out := ServiceTotals{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return err
		}
	}
	*t = out
	return nil
}

func (ServiceTotals) GormDataType() string { return "json" }

func (ServiceTotals) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	default:
		return "JSON"
	}
}

// AddOrderCost appends an order and folds its service costs into the
// running totals.
func (r *BillingReport) AddOrderCost(oc OrderCost) {
	if r.ServiceTotals == nil {
		r.ServiceTotals = ServiceTotals{}
	}
	oc.BillingReportID = r.ID
	for _, sc := range oc.ServiceCosts {
		r.ServiceTotals.Add(sc)
	}
	r.OrderCosts = append(r.OrderCosts, oc)
	r.TotalAmount = r.TotalAmount.Add(oc.TotalAmount)
}

// RecalculateTotal resets TotalAmount to the exact sum of ServiceTotals.
func (r *BillingReport) RecalculateTotal() {
	r.TotalAmount = r.ServiceTotals.Sum()
}

// Validate checks the report totals and that every order carries at least
// one positive service cost.
func (r *BillingReport) Validate() error {
	orderSum := decimal.Zero
	for _, oc := range r.OrderCosts {
		if len(oc.ServiceCosts) == 0 {
			return fmt.Errorf("%w: order %s has no service costs", ErrInconsistentReport, oc.OrderID)
		}
		costSum := decimal.Zero
		for _, sc := range oc.ServiceCosts {
			if !sc.Amount.IsPositive() {
				return fmt.Errorf("%w: order %s has a non-positive service cost", ErrInconsistentReport, oc.OrderID)
			}
			costSum = costSum.Add(sc.Amount)
		}
		if !costSum.Equal(oc.TotalAmount) {
			return fmt.Errorf("%w: order %s total mismatch", ErrInconsistentReport, oc.OrderID)
		}
		orderSum = orderSum.Add(oc.TotalAmount)
	}
	if !r.TotalAmount.Equal(r.ServiceTotals.Sum()) || !r.TotalAmount.Equal(orderSum) {
		return fmt.Errorf("%w: report total mismatch", ErrInconsistentReport)
	}
	return nil
}
