// Package evaluator decides whether rules and rule groups match an order.
// Evaluation never fails: unsupported combinations and panics count as a
// non-match and are logged.
package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smallbiznis/orderbill/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/orderbill/internal/order/domain"
	"github.com/smallbiznis/orderbill/internal/rule/domain"
	"github.com/smallbiznis/orderbill/internal/sku"
	"go.uber.org/zap"
)

type Evaluator struct {
	log     *zap.Logger
	metrics *metrics.ReportMetrics
}

func New(log *zap.Logger, m *metrics.ReportMetrics) *Evaluator {
	return &Evaluator{
		log:     log.Named("rule.evaluator"),
		metrics: m,
	}
}

// GroupResult carries the group verdict and the rules that matched on
// their own.
type GroupResult struct {
	Applies bool
	Matched []domain.Rule
}

// Evaluate tests a single rule against the order.
func (e *Evaluator) Evaluate(rule domain.Rule, order *orderdomain.Order) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			e.fail(rule, order, metrics.RuleFailurePanic, zap.Any("panic", r))
			matched = false
		}
	}()

	if order == nil {
		return false
	}
	value, ok := order.FieldValue(string(rule.Field))
	if !ok || value == nil {
		return false
	}
	op, ok := domain.ParseOperator(string(rule.Operator))
	if !ok {
		e.fail(rule, order, metrics.RuleFailureUnsupported)
		return false
	}

	var supported bool
	switch rule.Field.Kind() {
	case domain.FieldKindNumeric:
		matched, supported = compareNumeric(op, value, rule.Values())
	case domain.FieldKindString:
		matched, supported = compareString(op, fmt.Sprint(value), rule.Values())
	case domain.FieldKindSKU:
		matched, supported = compareSKU(op, value, rule.Values())
	}
	if !supported {
		e.fail(rule, order, metrics.RuleFailureUnsupported)
		return false
	}
	return matched
}

// EvaluateGroup combines every rule of the group by its logic operator. A
// group without rules never applies.
func (e *Evaluator) EvaluateGroup(group domain.RuleGroup, order *orderdomain.Order) bool {
	return e.Match(group, order).Applies
}

// Match is EvaluateGroup that also reports which rules matched.
func (e *Evaluator) Match(group domain.RuleGroup, order *orderdomain.Order) GroupResult {
	if len(group.Rules) == 0 {
		return GroupResult{}
	}

	var matched []domain.Rule
	for _, rule := range group.Rules {
		if e.Evaluate(rule, order) {
			matched = append(matched, rule)
		}
	}

	hits, total := len(matched), len(group.Rules)
	var applies bool
	logic, _ := domain.ParseLogicOperator(string(group.LogicOperator))
	switch logic {
	case domain.LogicAnd:
		applies = hits == total
	case domain.LogicOr:
		applies = hits > 0
	case domain.LogicNot, domain.LogicNor:
		applies = hits == 0
	case domain.LogicXor:
		applies = hits == 1
	case domain.LogicNand:
		applies = hits < total
	default:
		e.log.Warn("unknown logic operator",
			zap.String("rule_group_id", group.ID.String()),
			zap.String("logic_operator", string(group.LogicOperator)),
		)
		e.metrics.RecordRuleFailure(metrics.RuleFailureLogic)
		return GroupResult{}
	}
	return GroupResult{Applies: applies, Matched: matched}
}

func (e *Evaluator) fail(rule domain.Rule, order *orderdomain.Order, reason string, extra ...zap.Field) {
	fields := []zap.Field{
		zap.String("rule_id", rule.ID.String()),
		zap.String("field", string(rule.Field)),
		zap.String("operator", string(rule.Operator)),
		zap.String("reason", reason),
	}
	if order != nil {
		fields = append(fields, zap.String("order_id", order.ID.String()))
	}
	e.log.Warn("rule evaluation fell back to false", append(fields, extra...)...)
	e.metrics.RecordRuleFailure(reason)
}

func compareNumeric(op domain.Operator, value any, candidates []string) (bool, bool) {
	switch op {
	case domain.OperatorGT, domain.OperatorLT, domain.OperatorEQ,
		domain.OperatorNE, domain.OperatorGE, domain.OperatorLE:
	default:
		return false, false
	}

	left, ok := toFloat(value)
	if !ok || len(candidates) == 0 {
		return false, true
	}
	right, err := strconv.ParseFloat(candidates[0], 64)
	if err != nil {
		return false, true
	}

	switch op {
	case domain.OperatorGT:
		return left > right, true
	case domain.OperatorLT:
		return left < right, true
	case domain.OperatorEQ:
		return left == right, true
	case domain.OperatorNE:
		return left != right, true
	case domain.OperatorGE:
		return left >= right, true
	default:
		return left <= right, true
	}
}

func compareString(op domain.Operator, value string, candidates []string) (bool, bool) {
	first := ""
	if len(candidates) > 0 {
		first = candidates[0]
	}

	switch op {
	case domain.OperatorEQ:
		return value == first, true
	case domain.OperatorNE:
		return value != first, true
	case domain.OperatorIn:
		return anyOf(candidates, func(c string) bool { return value == c }), true
	case domain.OperatorNotIn:
		return !anyOf(candidates, func(c string) bool { return value == c }), true
	case domain.OperatorContains:
		return anyOf(candidates, func(c string) bool { return strings.Contains(value, c) }), true
	case domain.OperatorNotContains:
		return !anyOf(candidates, func(c string) bool { return strings.Contains(value, c) }), true
	case domain.OperatorStartsWith:
		return anyOf(candidates, func(c string) bool { return strings.HasPrefix(value, c) }), true
	case domain.OperatorEndsWith:
		return anyOf(candidates, func(c string) bool { return strings.HasSuffix(value, c) }), true
	default:
		return false, false
	}
}

func compareSKU(op domain.Operator, value any, candidates []string) (bool, bool) {
	orderSKUs := sku.ParseQuantities(value).SKUs()
	ruleSKUs := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if key := sku.Normalize(c); key != "" {
			ruleSKUs[key] = struct{}{}
		}
	}
	inRule := func(s string) bool {
		_, ok := ruleSKUs[s]
		return ok
	}

	switch op {
	case domain.OperatorContains:
		return anyOf(orderSKUs, inRule), true
	case domain.OperatorNotContains, domain.OperatorNotIn:
		return !anyOf(orderSKUs, inRule), true
	case domain.OperatorIn, domain.OperatorOnlyContains:
		if len(orderSKUs) == 0 {
			return false, true
		}
		return allOf(orderSKUs, inRule), true
	default:
		return false, false
	}
}

func anyOf(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if pred(v) {
			return true
		}
	}
	return false
}

func allOf(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
