package format

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderbill/internal/billingreport/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *domain.BillingReport {
	report := &domain.BillingReport{
		ID:           1,
		CustomerID:   2,
		CustomerName: "Acme",
		StartDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	oc := domain.OrderCost{
		ID:              10,
		OrderID:         100,
		TransactionID:   "T-1",
		ReferenceNumber: `PO "77"`,
		OrderDate:       time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC),
	}
	oc.AddServiceCost(domain.ServiceCost{ID: 20, ServiceID: 7, ServiceName: "Handling", Amount: decimal.NewFromInt(15)})
	oc.AddServiceCost(domain.ServiceCost{ID: 21, ServiceID: 8, ServiceName: "Packing, bulk", Amount: decimal.RequireFromString("50.5")})
	report.AddOrderCost(oc)
	report.RecalculateTotal()
	return report
}

func TestToJSON(t *testing.T) {
	b, err := ToJSON(sampleReport())
	require.NoError(t, err)

	body := string(b)
	assert.Contains(t, body, `"total_amount": 65.50`)
	assert.Contains(t, body, `"amount": 15.00`)
	assert.Contains(t, body, `"date": "2026-03-05"`)
	assert.Contains(t, body, `"start_date": "2026-03-01"`)
	assert.Less(t, strings.Index(body, `"7"`), strings.Index(body, `"8"`))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "Acme", decoded["customer_name"])
	assert.Len(t, decoded["order_costs"], 1)
}

func TestToCSV(t *testing.T) {
	b, err := ToCSV(sampleReport())
	require.NoError(t, err)

	want := strings.Join([]string{
		"order_id,reference_number,date,service_id,service_name,amount",
		`T-1,"PO ""77""",2026-03-05,7,Handling,15.00`,
		`T-1,"PO ""77""",2026-03-05,8,"Packing, bulk",50.50`,
		"",
		"SUMMARY",
		"service_id,service_name,total_amount",
		"7,Handling,15.00",
		`8,"Packing, bulk",50.50`,
		"TOTAL,,65.50",
		"",
	}, "\n")
	assert.Equal(t, want, string(b))
}

func TestToCSVEmptyReport(t *testing.T) {
	report := &domain.BillingReport{ID: 1, CustomerID: 2}
	b, err := ToCSV(report)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(b), "TOTAL,,0.00\n"))
}

func TestRender(t *testing.T) {
	_, contentType, err := Render(sampleReport(), "CSV")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	_, contentType, err = Render(sampleReport(), "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)

	_, _, err = Render(sampleReport(), "xml")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}
