package domain

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateRuleRequest struct {
	Field            string           `json:"field"`
	Operator         string           `json:"operator"`
	Value            string           `json:"value"`
	AdjustmentAmount *decimal.Decimal `json:"adjustment_amount"`
	TierConfig       json.RawMessage  `json:"tier_config"`
	Calculations     json.RawMessage  `json:"calculations"`
}

type CreateRuleGroupRequest struct {
	CustomerServiceID string              `json:"-"`
	Name              string              `json:"name"`
	LogicOperator     string              `json:"logic_operator"`
	Rules             []CreateRuleRequest `json:"rules"`
}

type Service interface {
	CreateRuleGroup(ctx context.Context, req CreateRuleGroupRequest) (RuleGroup, error)
	ListRuleGroups(ctx context.Context, customerServiceID string) ([]RuleGroup, error)
	SetTierConfig(ctx context.Context, ruleID string, raw json.RawMessage) (Rule, error)
}

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidField           = errors.New("invalid_field")
	ErrInvalidOperator        = errors.New("invalid_operator")
	ErrInvalidLogicOperator   = errors.New("invalid_logic_operator")
	ErrInvalidTierConfig      = errors.New("invalid_tier_config")
	ErrInvalidCalculation     = errors.New("invalid_calculation")
	ErrEmptyRuleGroup         = errors.New("empty_rule_group")
	ErrCustomerServiceMissing = errors.New("customer_service_not_found")
	ErrNotFound               = errors.New("not_found")
)
