package sku

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want string
	}{
		{name: "hyphens", in: "abc-123", want: "ABC123"},
		{name: "whitespace", in: " ab c\t12 3 ", want: "ABC123"},
		{name: "nil", in: nil, want: ""},
		{name: "empty", in: "", want: ""},
		{name: "number", in: 12345, want: "12345"},
		{name: "already normalised", in: "ABC123", want: "ABC123"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, in := range []string{"a-b-c", " x y ", "Sku-001", ""} {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizerCache(t *testing.T) {
	n := NewNormalizer()
	assert.Equal(t, "AB1", n.Normalize("ab-1"))
	assert.Equal(t, "AB1", n.Normalize("ab-1"))
	assert.Len(t, n.cache, 1)

	set := n.Set([]string{"ab-1", "AB 1", "", "cd"})
	assert.Len(t, set, 2)
	assert.Contains(t, set, "AB1")
	assert.Contains(t, set, "CD")
}

func TestParseQuantitiesAggregatesNormalisedDuplicates(t *testing.T) {
	raw := []any{
		map[string]any{"sku": "ABC-123", "quantity": 5},
		map[string]any{"sku": "ABC123", "quantity": 10},
	}
	assert.Equal(t, Quantities{"ABC123": 15}, ParseQuantities(raw))
}

func TestParseQuantitiesFromJSON(t *testing.T) {
	raw := `[{"sku":"a-1","quantity":2},{"sku":"b 2","quantity":"3"},{"sku":"c","quantity":1.9}]`
	assert.Equal(t, Quantities{"A1": 2, "B2": 3, "C": 1}, ParseQuantities(raw))
	assert.Equal(t, Quantities{"A1": 2, "B2": 3, "C": 1}, ParseQuantities(json.RawMessage(raw)))
	assert.Equal(t, Quantities{"A1": 2, "B2": 3, "C": 1}, ParseQuantities([]byte(raw)))
}

func TestParseQuantitiesDiscardsMalformed(t *testing.T) {
	cases := map[string]any{
		"nil":            nil,
		"bad json":       `[{"sku":`,
		"object":         `{"sku":"A","quantity":1}`,
		"empty string":   "",
		"unsupported":    42,
		"missing sku":    `[{"quantity":1}]`,
		"missing qty":    `[{"sku":"A"}]`,
		"blank sku":      `[{"sku":"  ","quantity":1}]`,
		"zero qty":       `[{"sku":"A","quantity":0}]`,
		"negative qty":   `[{"sku":"A","quantity":-2}]`,
		"non numeric":    `[{"sku":"A","quantity":"lots"}]`,
		"record not map": `["A", 1]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Empty(t, ParseQuantities(raw))
		})
	}
}

func TestParseQuantitiesKeepsValidAlongsideInvalid(t *testing.T) {
	raw := `[{"sku":"A","quantity":2},{"sku":"","quantity":5},{"sku":"B","quantity":-1}]`
	assert.Equal(t, Quantities{"A": 2}, ParseQuantities(raw))
}

func TestParseLinesCasesAndPicks(t *testing.T) {
	raw := `[
		{"sku":"a-1","quantity":24,"cases":2,"picks":0},
		{"sku":"A1","quantity":12,"cases":1},
		{"sku":"B","quantity":3,"picks":3},
		{"sku":"C","quantity":1,"cases":"x"}
	]`
	lines := ParseLines(raw)
	assert.Equal(t, []Line{
		{SKU: "A1", Quantity: 36, Cases: 3},
		{SKU: "B", Quantity: 3, Picks: 3},
		{SKU: "C", Quantity: 1},
	}, lines)
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(`[{"sku":"X","quantity":1}]`))
	assert.False(t, IsValid(`[{"sku":"","quantity":5}]`))
	assert.False(t, IsValid(`[{"sku":"X","quantity":-1}]`))
	assert.False(t, IsValid(`[]`))
	assert.False(t, IsValid(nil))
	assert.False(t, IsValid(`[{"sku":"X","quantity":1},{"sku":"Y","quantity":0}]`))
}

func TestSerializeRoundTrip(t *testing.T) {
	in := Quantities{"B2": 3, "A1": 7, "ZZ": 1}
	out := Serialize(in)
	assert.Equal(t, `[{"sku":"A1","quantity":7},{"sku":"B2","quantity":3},{"sku":"ZZ","quantity":1}]`, out)
	assert.Equal(t, in, ParseQuantities(out))
	assert.Equal(t, "[]", Serialize(nil))
}

func TestQuantitiesHelpers(t *testing.T) {
	q := Quantities{"B": 2, "A": 3}
	assert.Equal(t, []string{"A", "B"}, q.SKUs())
	assert.Equal(t, int64(5), q.Total())
}

func TestParseQuantitiesDropsOutOfRangeQuantity(t *testing.T) {
	raw := `[{"sku":"A","quantity":1e30},{"sku":"B","quantity":4}]`

	assert.Equal(t, Quantities{"B": 4}, ParseQuantities(raw))
	assert.False(t, IsValid(raw))
}
