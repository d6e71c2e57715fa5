package calculator

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	orderdomain "github.com/smallbiznis/orderbill/internal/order/domain"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// ApplyAdjustments adds the adjustment amount of every matched rule to base
// and then runs the rule's calculation steps in order. A rule whose
// extension cannot be read contributes its adjustment amount only. Tier
// rules of case_based_tier services are skipped since the base amount
// already reflects them. The result is never negative.
func (c *Calculator) ApplyAdjustments(ctx context.Context, cc *CallContext, cs csdomain.CustomerService, base decimal.Decimal, matched []ruledomain.Rule, order *orderdomain.Order) decimal.Decimal {
	amount := base
	for _, rule := range matched {
		if cs.ChargeType() == csdomain.ChargeTypeCaseBasedTier && rule.HasTierConfig() {
			continue
		}
		amount = c.applyRule(cc, cs, rule, amount, order)
	}
	return clamp(amount)
}

func (c *Calculator) applyRule(cc *CallContext, cs csdomain.CustomerService, rule ruledomain.Rule, amount decimal.Decimal, order *orderdomain.Order) (out decimal.Decimal) {
	out = amount
	defer func() {
		if r := recover(); r != nil {
			c.fail(cs, order, fmt.Errorf("rule %s adjustment panic: %v", rule.ID, r))
			out = amount
		}
	}()

	if rule.AdjustmentAmount.Valid {
		out = out.Add(rule.AdjustmentAmount.Decimal)
	}
	if !rule.IsAdvanced() {
		return out
	}

	ext, err := rule.Advanced()
	if err != nil {
		c.log.Warn("skipping unreadable rule extension",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err),
		)
		return out
	}
	for _, step := range ext.Calculations {
		out = applyStep(cc, rule, step, out, order)
	}
	return out
}

func applyStep(cc *CallContext, rule ruledomain.Rule, step ruledomain.Calculation, amount decimal.Decimal, order *orderdomain.Order) decimal.Decimal {
	switch step.Type {
	case ruledomain.CalculationFlatFee:
		return amount.Add(step.Value)
	case ruledomain.CalculationPercentage:
		return amount.Mul(percentFactor(step.Value))
	case ruledomain.CalculationPerUnit:
		return amount.Add(step.Value.Mul(decimal.NewFromInt(order.ItemQuantity())))
	case ruledomain.CalculationWeightBased:
		return amount.Add(step.Value.Mul(floatOrZero(order.WeightLb)))
	case ruledomain.CalculationVolumeBased:
		return amount.Add(step.Value.Mul(floatOrZero(order.VolumeCuft)))
	case ruledomain.CalculationTieredPercentage:
		for _, tier := range step.Tiers {
			if amount.LessThan(tier.Min) {
				continue
			}
			if tier.Max != nil && amount.GreaterThan(*tier.Max) {
				continue
			}
			return amount.Mul(percentFactor(tier.Percentage))
		}
		return amount
	case ruledomain.CalculationProductSpecific:
		scope := cc.Normalizer.Set(step.SKUs)
		var qty int64
		for key, n := range order.Quantities() {
			if _, ok := scope[key]; ok {
				qty += n
			}
		}
		return amount.Add(step.Value.Mul(decimal.NewFromInt(qty)))
	case ruledomain.CalculationCaseBasedTier:
		res := EvaluateCaseTier(rule, order)
		if !res.Applies {
			return amount
		}
		return amount.Mul(res.Multiplier)
	default:
		return amount
	}
}

func percentFactor(pct decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(1).Add(pct.Div(hundred))
}

func floatOrZero(v *float64) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*v)
}
