package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
	orderdomain "github.com/smallbiznis/orderbill/internal/order/domain"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
)

type TierResult struct {
	Applies    bool
	Multiplier decimal.Decimal
	Summary    *orderdomain.CaseSummary
}

// EvaluateCaseTier picks the tier multiplier for the order's case count,
// ignoring the excluded SKUs of the rule's tier config. Range bounds are
// inclusive. Any failure yields a non-applying result without a summary.
func EvaluateCaseTier(rule ruledomain.Rule, order *orderdomain.Order) TierResult {
	res, _ := evaluateCaseTier(rule, order)
	return res
}

func evaluateCaseTier(rule ruledomain.Rule, order *orderdomain.Order) (res TierResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = TierResult{Multiplier: decimal.Zero}
			err = fmt.Errorf("case tier evaluation panicked: %v", r)
		}
	}()

	if order == nil {
		return TierResult{Multiplier: decimal.Zero}, nil
	}
	ext, err := rule.Advanced()
	if err != nil {
		return TierResult{Multiplier: decimal.Zero}, err
	}

	var excluded []string
	if ext.TierConfig != nil {
		excluded = ext.TierConfig.ExcludedSKUs
	}
	summary := order.CaseSummary(excluded)
	if summary.TotalCases == 0 || len(summary.SKUs) == 0 {
		return TierResult{Multiplier: decimal.Zero, Summary: &summary}, nil
	}

	multiplier, ok := ext.TierConfig.Match(float64(summary.TotalCases))
	if !ok {
		return TierResult{Multiplier: decimal.Zero, Summary: &summary}, nil
	}
	return TierResult{Applies: true, Multiplier: multiplier, Summary: &summary}, nil
}
