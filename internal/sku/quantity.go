package sku

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Quantities maps a normalised SKU to its positive unit count.
type Quantities map[string]int64

// SKUs returns the keys in ascending order.
func (q Quantities) SKUs() []string {
	keys := lo.Keys(q)
	slices.Sort(keys)
	return keys
}

func (q Quantities) Total() int64 {
	var total int64
	for _, v := range q {
		total += v
	}
	return total
}

// Line is one aggregated SKU entry including the optional case and pick
// sub-counts used by tier pricing. Missing sub-counts are zero.
type Line struct {
	SKU      string
	Quantity int64
	Cases    int64
	Picks    int64
}

type entry struct {
	SKU      string `json:"sku"`
	Quantity int64  `json:"quantity"`
}

// ParseQuantities accepts JSON text, raw JSON bytes, a decoded list of
// records or nil. Malformed input and invalid records are dropped; it never
// fails.
func ParseQuantities(raw any) Quantities {
	lines := ParseLines(raw)
	out := make(Quantities, len(lines))
	for _, l := range lines {
		out[l.SKU] = l.Quantity
	}
	return out
}

// ParseLines is ParseQuantities with case and pick sub-counts kept. Lines are
// returned in first-seen order with duplicates merged.
func ParseLines(raw any) []Line {
	items := decode(raw)
	if len(items) == 0 {
		return nil
	}

	index := make(map[string]int, len(items))
	lines := make([]Line, 0, len(items))
	for _, item := range items {
		line, ok := parseRecord(item)
		if !ok {
			continue
		}
		if i, seen := index[line.SKU]; seen {
			lines[i].Quantity += line.Quantity
			lines[i].Cases += line.Cases
			lines[i].Picks += line.Picks
			continue
		}
		index[line.SKU] = len(lines)
		lines = append(lines, line)
	}
	return lines
}

// IsValid reports whether raw holds at least one record and every record has
// a non-empty SKU and a positive numeric quantity.
func IsValid(raw any) bool {
	items := decode(raw)
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if _, ok := parseRecord(item); !ok {
			return false
		}
	}
	return true
}

// Serialize renders q as a JSON list of {sku, quantity} records sorted by SKU.
func Serialize(q Quantities) string {
	entries := make([]entry, 0, len(q))
	for _, key := range q.SKUs() {
		entries = append(entries, entry{SKU: key, Quantity: q[key]})
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func parseRecord(item any) (Line, bool) {
	record, ok := item.(map[string]any)
	if !ok {
		return Line{}, false
	}
	rawSKU, ok := record["sku"]
	if !ok {
		return Line{}, false
	}
	rawQty, ok := record["quantity"]
	if !ok {
		return Line{}, false
	}

	key := Normalize(rawSKU)
	if key == "" {
		return Line{}, false
	}
	// Quantities beyond MaxInt64/2 fail toInt and drop the record; IsValid
	// reports such payloads so callers can log them.
	qty, ok := toInt(rawQty)
	if !ok || qty <= 0 {
		return Line{}, false
	}

	line := Line{SKU: key, Quantity: qty}
	if cases, ok := toInt(record["cases"]); ok && cases > 0 {
		line.Cases = cases
	}
	if picks, ok := toInt(record["picks"]); ok && picks > 0 {
		line.Picks = picks
	}
	return line, true
}

type jsonMarshaler interface {
	MarshalJSON() ([]byte, error)
}

func decode(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []map[string]any:
		out := make([]any, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out
	case string:
		return decodeJSON([]byte(v))
	case []byte:
		return decodeJSON(v)
	case json.RawMessage:
		return decodeJSON(v)
	case jsonMarshaler:
		b, err := v.MarshalJSON()
		if err != nil {
			return nil
		}
		return decodeJSON(b)
	default:
		return nil
	}
}

func decodeJSON(b []byte) []any {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil
	}
	list, _ := out.([]any)
	return list
}

func toInt(raw any) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint32:
		return int64(v), true
	case float32:
		return floatToInt(float64(v))
	case float64:
		return floatToInt(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return floatToInt(f)
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false
	}
	return int64(f), true
}
