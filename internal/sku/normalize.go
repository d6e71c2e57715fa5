// Package sku canonicalises SKU identifiers and parses order SKU-quantity
// payloads.
package sku

import (
	"fmt"
	"strings"
	"unicode"
)

// Normalize strips hyphens and whitespace and upper-cases the result. Nil
// yields ""; other non-string values are formatted first.
func Normalize(raw any) string {
	s := toString(raw)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

func toString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Normalizer memoises Normalize for one report generation. It is not safe
// for concurrent use.
type Normalizer struct {
	cache map[string]string
}

func NewNormalizer() *Normalizer {
	return &Normalizer{cache: make(map[string]string)}
}

func (n *Normalizer) Normalize(raw string) string {
	if v, ok := n.cache[raw]; ok {
		return v
	}
	v := Normalize(raw)
	n.cache[raw] = v
	return v
}

// Set normalises every value and drops empties.
func (n *Normalizer) Set(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if key := n.Normalize(v); key != "" {
			out[key] = struct{}{}
		}
	}
	return out
}
