package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Field names an order attribute a rule can test.
type Field string

const (
	FieldWeightLb        Field = "weight_lb"
	FieldLineItems       Field = "line_items"
	FieldTotalItemQty    Field = "total_item_qty"
	FieldVolumeCuft      Field = "volume_cuft"
	FieldPackages        Field = "packages"
	FieldReferenceNumber Field = "reference_number"
	FieldShipToName      Field = "ship_to_name"
	FieldShipToCompany   Field = "ship_to_company"
	FieldShipToCity      Field = "ship_to_city"
	FieldShipToState     Field = "ship_to_state"
	FieldShipToCountry   Field = "ship_to_country"
	FieldCarrier         Field = "carrier"
	FieldNotes           Field = "notes"
	FieldSKUQuantity     Field = "sku_quantity"
)

type FieldKind int

const (
	FieldKindUnknown FieldKind = iota
	FieldKindNumeric
	FieldKindString
	FieldKindSKU
)

func (f Field) Kind() FieldKind {
	switch f {
	case FieldWeightLb, FieldLineItems, FieldTotalItemQty, FieldVolumeCuft, FieldPackages:
		return FieldKindNumeric
	case FieldReferenceNumber, FieldShipToName, FieldShipToCompany, FieldShipToCity,
		FieldShipToState, FieldShipToCountry, FieldCarrier, FieldNotes:
		return FieldKindString
	case FieldSKUQuantity:
		return FieldKindSKU
	default:
		return FieldKindUnknown
	}
}

type Operator string

const (
	OperatorGT           Operator = "gt"
	OperatorLT           Operator = "lt"
	OperatorEQ           Operator = "eq"
	OperatorNE           Operator = "ne"
	OperatorGE           Operator = "ge"
	OperatorLE           Operator = "le"
	OperatorIn           Operator = "in"
	OperatorNotIn        Operator = "ni"
	OperatorContains     Operator = "contains"
	OperatorNotContains  Operator = "ncontains"
	OperatorStartsWith   Operator = "startswith"
	OperatorEndsWith     Operator = "endswith"
	OperatorOnlyContains Operator = "only_contains"
)

var operatorAliases = map[string]Operator{
	"neq":          OperatorNE,
	"not_contains": OperatorNotContains,
	"not_in":       OperatorNotIn,
	"gte":          OperatorGE,
	"lte":          OperatorLE,
}

// ParseOperator canonicalises raw, folding known aliases.
func ParseOperator(raw string) (Operator, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if op, ok := operatorAliases[key]; ok {
		return op, true
	}
	switch op := Operator(key); op {
	case OperatorGT, OperatorLT, OperatorEQ, OperatorNE, OperatorGE, OperatorLE,
		OperatorIn, OperatorNotIn, OperatorContains, OperatorNotContains,
		OperatorStartsWith, OperatorEndsWith, OperatorOnlyContains:
		return op, true
	default:
		return "", false
	}
}

type LogicOperator string

const (
	LogicAnd  LogicOperator = "AND"
	LogicOr   LogicOperator = "OR"
	LogicNot  LogicOperator = "NOT"
	LogicXor  LogicOperator = "XOR"
	LogicNand LogicOperator = "NAND"
	LogicNor  LogicOperator = "NOR"
)

func ParseLogicOperator(raw string) (LogicOperator, bool) {
	switch op := LogicOperator(strings.ToUpper(strings.TrimSpace(raw))); op {
	case LogicAnd, LogicOr, LogicNot, LogicXor, LogicNand, LogicNor:
		return op, true
	default:
		return "", false
	}
}

// Kind discriminates plain rules from rules carrying tier config or
// calculation steps.
type Kind string

const (
	KindBasic    Kind = "basic"
	KindAdvanced Kind = "advanced"
)

type RuleGroup struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerServiceID snowflake.ID  `gorm:"not null;index" json:"customer_service_id"`
	Name              string        `gorm:"type:text" json:"name"`
	LogicOperator     LogicOperator `gorm:"type:text;not null" json:"logic_operator"`
	Rules             []Rule        `gorm:"foreignKey:RuleGroupID" json:"rules"`
	CreatedAt         time.Time     `gorm:"not null" json:"created_at"`
}

func (RuleGroup) TableName() string { return "rule_groups" }

type Rule struct {
	ID               snowflake.ID        `gorm:"primaryKey" json:"id"`
	RuleGroupID      snowflake.ID        `gorm:"not null;index" json:"rule_group_id"`
	Field            Field               `gorm:"type:text;not null" json:"field"`
	Operator         Operator            `gorm:"type:text;not null" json:"operator"`
	Value            string              `gorm:"type:text;not null" json:"value"`
	AdjustmentAmount decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"adjustment_amount"`
	Kind             Kind                `gorm:"type:text;not null;default:'basic'" json:"kind"`
	TierConfig       datatypes.JSON      `json:"tier_config,omitempty"`
	Calculations     datatypes.JSON      `json:"calculations,omitempty"`
	CreatedAt        time.Time           `gorm:"not null" json:"created_at"`
}

func (Rule) TableName() string { return "rules" }

// Values splits the semicolon-delimited candidate list, trimming blanks.
func (r Rule) Values() []string {
	parts := strings.Split(r.Value, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (r Rule) IsAdvanced() bool {
	return r.Kind == KindAdvanced
}

func (r Rule) HasTierConfig() bool {
	return r.IsAdvanced() && len(r.TierConfig) > 0
}

// Extension is the decoded advanced payload of a rule.
type Extension struct {
	TierConfig   *TierConfig
	Calculations []Calculation
}

// Advanced decodes the tier config and calculation steps. Basic rules yield
// an empty extension.
func (r Rule) Advanced() (Extension, error) {
	if !r.IsAdvanced() {
		return Extension{}, nil
	}
	var ext Extension
	if len(r.TierConfig) > 0 {
		cfg, err := ParseTierConfig(r.TierConfig)
		if err != nil {
			return Extension{}, err
		}
		ext.TierConfig = cfg
	}
	if len(r.Calculations) > 0 {
		steps, err := ParseCalculations(r.Calculations)
		if err != nil {
			return Extension{}, err
		}
		ext.Calculations = steps
	}
	return ext, nil
}
