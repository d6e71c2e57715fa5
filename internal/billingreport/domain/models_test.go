package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cost(id, serviceID int64, name, amount string) ServiceCost {
	return ServiceCost{ID: snowflake.ID(id), ServiceID: snowflake.ID(serviceID), ServiceName: name, Amount: decimal.RequireFromString(amount)}
}

func TestAddOrderCostKeepsTotalsInSync(t *testing.T) {
	report := &BillingReport{ID: 1}

	first := OrderCost{ID: 10, OrderID: 100}
	first.AddServiceCost(cost(1, 7, "Handling", "15"))
	first.AddServiceCost(cost(2, 8, "Packing", "50"))
	report.AddOrderCost(first)

	second := OrderCost{ID: 11, OrderID: 101}
	second.AddServiceCost(cost(3, 7, "Handling", "15"))
	report.AddOrderCost(second)

	assert.Equal(t, "80", report.TotalAmount.String())
	require.Len(t, report.ServiceTotals, 2)
	assert.Equal(t, "30", report.ServiceTotals["7"].Amount.String())
	assert.Equal(t, snowflake.ID(1), report.OrderCosts[0].BillingReportID)
	assert.Equal(t, snowflake.ID(10), report.OrderCosts[0].ServiceCosts[0].OrderCostID)
	require.NoError(t, report.Validate())

	report.TotalAmount = decimal.NewFromInt(1)
	assert.ErrorIs(t, report.Validate(), ErrInconsistentReport)
	report.RecalculateTotal()
	require.NoError(t, report.Validate())
}

func TestValidateRejectsEmptyOrder(t *testing.T) {
	report := &BillingReport{ID: 1}
	report.AddOrderCost(OrderCost{ID: 10, OrderID: 100})
	assert.ErrorIs(t, report.Validate(), ErrInconsistentReport)
}

func TestServiceTotalsScanAndValue(t *testing.T) {
	totals := ServiceTotals{}
	totals.Add(cost(1, 7, "Handling", "15.5"))

	raw, err := totals.Value()
	require.NoError(t, err)

	var decoded ServiceTotals
	require.NoError(t, decoded.Scan(raw))
	assert.True(t, decoded["7"].Amount.Equal(decimal.RequireFromString("15.5")))
	assert.Equal(t, "Handling", decoded["7"].ServiceName)

	require.NoError(t, decoded.Scan(nil))
	assert.Empty(t, decoded)
	assert.Error(t, decoded.Scan(42))
}

func TestSortedServiceTotals(t *testing.T) {
	totals := ServiceTotals{}
	totals.Add(cost(1, 9, "Packing", "1"))
	totals.Add(cost(2, 7, "Handling", "1"))

	sorted := totals.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, "Handling", sorted[0].ServiceName)
	assert.Equal(t, "Packing", sorted[1].ServiceName)
}

func TestErrorKinds(t *testing.T) {
	verr := NewValidationError(ErrInvalidDateRange, "start %s after end", "2026-02-01")
	wrapped := fmt.Errorf("generate: %w", verr)
	assert.True(t, IsValidationError(wrapped))
	assert.ErrorIs(t, wrapped, ErrInvalidDateRange)
	assert.Equal(t, "invalid_date_range: start 2026-02-01 after end", verr.Error())

	gerr := &GenerationError{Err: errors.New("connection reset")}
	assert.ErrorIs(t, gerr, ErrReportGeneration)
	assert.False(t, IsValidationError(gerr))
	assert.Contains(t, gerr.Error(), "connection reset")
}
