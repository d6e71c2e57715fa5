package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestFieldValue(t *testing.T) {
	weight := 12.5
	qty := int64(10)
	o := &Order{
		ShipToCountry: "US",
		WeightLb:      &weight,
		TotalItemQty:  &qty,
		SKUQuantity:   datatypes.JSON(`[{"sku":"A","quantity":1}]`),
	}

	v, ok := o.FieldValue("weight_lb")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	v, ok = o.FieldValue("total_item_qty")
	assert.True(t, ok)
	assert.Equal(t, float64(10), v)

	_, ok = o.FieldValue("volume_cuft")
	assert.False(t, ok, "unset numeric attribute is absent")

	v, ok = o.FieldValue("ship_to_country")
	assert.True(t, ok)
	assert.Equal(t, "US", v)

	_, ok = o.FieldValue("sku_quantity")
	assert.True(t, ok)

	_, ok = o.FieldValue("colour")
	assert.False(t, ok)

	_, ok = (&Order{}).FieldValue("sku_quantity")
	assert.False(t, ok)
}

func TestItemQuantityDefaultsToOne(t *testing.T) {
	assert.Equal(t, int64(1), (&Order{}).ItemQuantity())
	qty := int64(0)
	assert.Equal(t, int64(0), (&Order{TotalItemQty: &qty}).ItemQuantity())
}

func TestCaseSummary(t *testing.T) {
	o := &Order{SKUQuantity: datatypes.JSON(`[
		{"sku":"box-1","quantity":24,"cases":2},
		{"sku":"BOX1","quantity":12,"cases":1,"picks":1},
		{"sku":"tape","quantity":5,"cases":4},
		{"sku":"loose","quantity":3}
	]`)}

	summary := o.CaseSummary([]string{"TA-PE"})
	assert.Equal(t, int64(3), summary.TotalCases)
	assert.Equal(t, int64(1), summary.TotalPicks)
	assert.Equal(t, SKUCases{Quantity: 36, Cases: 3, Picks: 1}, summary.SKUs["BOX1"])
	assert.Equal(t, SKUCases{Quantity: 3}, summary.SKUs["LOOSE"])
	assert.NotContains(t, summary.SKUs, "TAPE")
}

func TestHasOnlyExcludedSKUs(t *testing.T) {
	o := &Order{SKUQuantity: datatypes.JSON(`[{"sku":"tape","quantity":5,"cases":4}]`)}
	assert.True(t, o.HasOnlyExcludedSKUs([]string{"TAPE"}))
	assert.False(t, o.HasOnlyExcludedSKUs(nil))
	assert.False(t, (&Order{}).HasOnlyExcludedSKUs([]string{"TAPE"}))

	summary := o.CaseSummary([]string{"tape"})
	assert.Zero(t, summary.TotalCases)
	assert.Empty(t, summary.SKUs)
}
