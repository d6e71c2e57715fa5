package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type CalculationType string

const (
	CalculationFlatFee          CalculationType = "flat_fee"
	CalculationPercentage       CalculationType = "percentage"
	CalculationPerUnit          CalculationType = "per_unit"
	CalculationWeightBased      CalculationType = "weight_based"
	CalculationVolumeBased      CalculationType = "volume_based"
	CalculationTieredPercentage CalculationType = "tiered_percentage"
	CalculationProductSpecific  CalculationType = "product_specific"
	CalculationCaseBasedTier    CalculationType = "case_based_tier"
)

// PercentageTier applies Percentage when the running amount is within
// [Min, Max]. A nil Max is unbounded.
type PercentageTier struct {
	Min        decimal.Decimal  `json:"min"`
	Max        *decimal.Decimal `json:"max,omitempty"`
	Percentage decimal.Decimal  `json:"percentage"`
}

// Calculation is one adjustment step applied after the base amount.
type Calculation struct {
	Type  CalculationType  `json:"type" validate:"required,oneof=flat_fee percentage per_unit weight_based volume_based tiered_percentage product_specific case_based_tier"`
	Value decimal.Decimal  `json:"value"`
	SKUs  []string         `json:"skus,omitempty" validate:"required_if=Type product_specific"`
	Tiers []PercentageTier `json:"tiers,omitempty" validate:"required_if=Type tiered_percentage"`
}

func ParseCalculations(raw []byte) ([]Calculation, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var steps []Calculation
	if err := dec.Decode(&steps); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalculation, err)
	}
	for i, step := range steps {
		if err := validate.Struct(step); err != nil {
			return nil, fmt.Errorf("%w: step %d: %v", ErrInvalidCalculation, i, err)
		}
	}
	return steps, nil
}
