package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// TierRange selects Multiplier when the case count is within [Min, Max].
type TierRange struct {
	Min        *float64         `json:"min" validate:"required,gte=0"`
	Max        *float64         `json:"max" validate:"required,gte=0"`
	Multiplier *decimal.Decimal `json:"multiplier" validate:"required"`
}

type TierConfig struct {
	Ranges       []TierRange `json:"ranges" validate:"dive"`
	ExcludedSKUs []string    `json:"excluded_skus,omitempty"`
}

// Match returns the multiplier of the first range containing count.
func (c *TierConfig) Match(count float64) (decimal.Decimal, bool) {
	if c == nil {
		return decimal.Zero, false
	}
	for _, r := range c.Ranges {
		if r.Min == nil || r.Max == nil || r.Multiplier == nil {
			continue
		}
		if count >= *r.Min && count <= *r.Max {
			return *r.Multiplier, true
		}
	}
	return decimal.Zero, false
}

// ParseTierConfig decodes and validates an authored tier configuration.
func ParseTierConfig(raw []byte) (*TierConfig, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var cfg TierConfig
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTierConfig, err)
	}
	if err := ValidateTierConfig(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ValidateTierConfig(cfg TierConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTierConfig, err)
	}
	for i, r := range cfg.Ranges {
		if *r.Min > *r.Max {
			return fmt.Errorf("%w: range %d has min greater than max", ErrInvalidTierConfig, i)
		}
		if r.Multiplier.IsNegative() {
			return fmt.Errorf("%w: range %d has a negative multiplier", ErrInvalidTierConfig, i)
		}
	}
	return nil
}
