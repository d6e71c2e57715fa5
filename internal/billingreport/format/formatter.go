// Package format renders billing reports for export.
package format

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderbill/internal/billingreport/domain"
)

const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Amount renders a decimal as an unquoted fixed-point number with two
// decimals.
type Amount decimal.Decimal

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).StringFixed(2)), nil
}

func (a Amount) String() string {
	return decimal.Decimal(a).StringFixed(2)
}

type Report struct {
	ReportID      string                  `json:"report_id"`
	CustomerID    string                  `json:"customer_id"`
	CustomerName  string                  `json:"customer_name"`
	StartDate     string                  `json:"start_date"`
	EndDate       string                  `json:"end_date"`
	OrderCosts    []OrderCost             `json:"order_costs"`
	ServiceTotals map[string]ServiceTotal `json:"service_totals"`
	TotalAmount   Amount                  `json:"total_amount"`
}

type OrderCost struct {
	OrderID         string        `json:"order_id"`
	ReferenceNumber string        `json:"reference_number"`
	Date            string        `json:"date"`
	ServiceCosts    []ServiceCost `json:"service_costs"`
	TotalAmount     Amount        `json:"total_amount"`
}

type ServiceCost struct {
	ServiceID   string `json:"service_id"`
	ServiceName string `json:"service_name"`
	Amount      Amount `json:"amount"`
}

type ServiceTotal struct {
	ServiceName string `json:"service_name"`
	Amount      Amount `json:"amount"`
}

// ToStructured converts a report into its export shape. Orders keep the
// report order.
func ToStructured(report *domain.BillingReport) Report {
	out := Report{
		ReportID:      report.ID.String(),
		CustomerID:    report.CustomerID.String(),
		CustomerName:  report.CustomerName,
		StartDate:     formatDate(report.StartDate),
		EndDate:       formatDate(report.EndDate),
		OrderCosts:    make([]OrderCost, 0, len(report.OrderCosts)),
		ServiceTotals: make(map[string]ServiceTotal, len(report.ServiceTotals)),
		TotalAmount:   Amount(report.TotalAmount),
	}
	for _, oc := range report.OrderCosts {
		item := OrderCost{
			OrderID:         orderID(oc),
			ReferenceNumber: oc.ReferenceNumber,
			Date:            formatDate(oc.OrderDate),
			ServiceCosts:    make([]ServiceCost, 0, len(oc.ServiceCosts)),
			TotalAmount:     Amount(oc.TotalAmount),
		}
		for _, sc := range oc.ServiceCosts {
			item.ServiceCosts = append(item.ServiceCosts, ServiceCost{
				ServiceID:   sc.ServiceID.String(),
				ServiceName: sc.ServiceName,
				Amount:      Amount(sc.Amount),
			})
		}
		out.OrderCosts = append(out.OrderCosts, item)
	}
	for key, total := range report.ServiceTotals {
		out.ServiceTotals[key] = ServiceTotal{
			ServiceName: total.ServiceName,
			Amount:      Amount(total.Amount),
		}
	}
	return out
}

// ToJSON renders the structured form. Map keys are sorted by encoding/json.
func ToJSON(report *domain.BillingReport) ([]byte, error) {
	return json.MarshalIndent(ToStructured(report), "", "  ")
}

// ToCSV renders one row per service cost, then a summary per service and a
// final total row.
func ToCSV(report *domain.BillingReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{{"order_id", "reference_number", "date", "service_id", "service_name", "amount"}}
	for _, oc := range report.OrderCosts {
		for _, sc := range oc.ServiceCosts {
			rows = append(rows, []string{
				orderID(oc),
				oc.ReferenceNumber,
				formatDate(oc.OrderDate),
				sc.ServiceID.String(),
				sc.ServiceName,
				sc.Amount.StringFixed(2),
			})
		}
	}
	rows = append(rows,
		[]string{},
		[]string{"SUMMARY"},
		[]string{"service_id", "service_name", "total_amount"},
	)
	for _, total := range report.ServiceTotals.Sorted() {
		rows = append(rows, []string{total.ServiceID.String(), total.ServiceName, total.Amount.StringFixed(2)})
	}
	rows = append(rows, []string{"TOTAL", "", report.TotalAmount.StringFixed(2)})

	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render returns the report in the named format with its content type.
func Render(report *domain.BillingReport, format string) ([]byte, string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		b, err := ToJSON(report)
		return b, "application/json", err
	case FormatCSV:
		b, err := ToCSV(report)
		return b, "text/csv", err
	default:
		return nil, "", domain.ErrInvalidFormat
	}
}

func orderID(oc domain.OrderCost) string {
	if oc.TransactionID != "" {
		return oc.TransactionID
	}
	return oc.OrderID.String()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
