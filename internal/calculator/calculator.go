// Package calculator prices one customer service against one order.
package calculator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	"github.com/smallbiznis/orderbill/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/orderbill/internal/order/domain"
	productdomain "github.com/smallbiznis/orderbill/internal/product/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Catalog productdomain.Catalog
	Metrics *metrics.ReportMetrics `optional:"true"`
}

type Calculator struct {
	log     *zap.Logger
	catalog productdomain.Catalog
	metrics *metrics.ReportMetrics
}

func New(p Params) *Calculator {
	return &Calculator{
		log:     p.Log.Named("calculator"),
		catalog: p.Catalog,
		metrics: p.Metrics,
	}
}

// Calculate returns the non-negative amount, rounded to cents, that cs
// charges for order. Failures are logged and priced at zero.
func (c *Calculator) Calculate(ctx context.Context, cc *CallContext, cs csdomain.CustomerService, order *orderdomain.Order) (amount decimal.Decimal) {
	chargeType := cs.ChargeType()
	defer func() {
		if r := recover(); r != nil {
			c.fail(cs, order, fmt.Errorf("panic: %v", r))
			amount = decimal.Zero
		}
	}()

	var err error
	switch chargeType {
	case csdomain.ChargeTypeCaseBasedTier:
		amount, err = c.caseTierAmount(cc, cs, order)
	case csdomain.ChargeTypeSingle:
		amount = c.singleAmount(cs)
	case csdomain.ChargeTypeQuantity:
		amount, err = c.quantityAmount(ctx, cc, cs, order)
	default:
		c.log.Warn("unknown charge type",
			zap.String("customer_service_id", cs.ID.String()),
			zap.String("charge_type", string(chargeType)),
		)
		c.metrics.RecordCalculationFailure(string(chargeType))
		return decimal.Zero
	}
	if err != nil {
		c.fail(cs, order, err)
		return decimal.Zero
	}
	return clamp(amount)
}

func (c *Calculator) singleAmount(cs csdomain.CustomerService) decimal.Decimal {
	if !cs.UnitPrice.IsPositive() {
		return decimal.Zero
	}
	return cs.UnitPrice
}

func (c *Calculator) caseTierAmount(cc *CallContext, cs csdomain.CustomerService, order *orderdomain.Order) (decimal.Decimal, error) {
	rules := cc.TierRules(cs.ID)
	if len(rules) == 0 {
		c.log.Debug("tier service has no tier config", zap.String("customer_service_id", cs.ID.String()))
		return decimal.Zero, nil
	}
	if len(rules) > 1 {
		c.log.Warn("tier service has several tier configs, using the first",
			zap.String("customer_service_id", cs.ID.String()),
			zap.Int("rules", len(rules)),
		)
	}

	res, err := evaluateCaseTier(rules[0], order)
	if err != nil {
		return decimal.Zero, err
	}
	if !res.Applies {
		return decimal.Zero, nil
	}
	return cs.UnitPrice.Mul(res.Multiplier), nil
}

func (c *Calculator) quantityAmount(ctx context.Context, cc *CallContext, cs csdomain.CustomerService, order *orderdomain.Order) (decimal.Decimal, error) {
	if !cs.UnitPrice.IsPositive() {
		return decimal.Zero, nil
	}

	if assigned := cs.AssignedSKUs(); len(assigned) > 0 {
		scope := cc.Normalizer.Set(assigned)
		var matched int64
		for key, qty := range order.Quantities() {
			if _, ok := scope[key]; ok {
				matched += qty
			}
		}
		return cs.UnitPrice.Mul(decimal.NewFromInt(matched)), nil
	}

	name := normalizeName(cs.ServiceName())
	switch name {
	case normalizeName(cc.Engine.PickCostService):
		return c.pickAmount(ctx, cc, cs, order, false)
	case normalizeName(cc.Engine.CasePickService):
		return c.pickAmount(ctx, cc, cs, order, true)
	case normalizeName(cc.Engine.SKUCostService):
		return cs.UnitPrice.Mul(decimal.NewFromInt(int64(len(order.Quantities())))), nil
	default:
		return cs.UnitPrice.Mul(decimal.NewFromInt(order.ItemQuantity())), nil
	}
}

// pickAmount charges full cases for case pick and the loose remainder for
// pick cost. SKUs claimed by SKU-scoped services are skipped.
func (c *Calculator) pickAmount(ctx context.Context, cc *CallContext, cs csdomain.CustomerService, order *orderdomain.Order, fullCases bool) (decimal.Decimal, error) {
	quantities := order.Quantities()
	keys := make([]string, 0, len(quantities))
	for _, key := range quantities.SKUs() {
		if !cc.IsExcluded(key) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return decimal.Zero, nil
	}

	products, err := cc.Products(ctx, c.catalog, keys)
	if err != nil {
		return decimal.Zero, fmt.Errorf("product lookup: %w", err)
	}

	var units int64
	for _, key := range keys {
		qty := quantities[key]
		caseSize := int64(1)
		if p, ok := products[key]; ok {
			caseSize = p.UnitsPerCase(cc.Engine.CaseUnitLabel)
		}
		switch {
		case fullCases:
			units += qty / caseSize
		case caseSize > 1:
			units += qty % caseSize
		default:
			units += qty
		}
	}
	return cs.UnitPrice.Mul(decimal.NewFromInt(units)), nil
}

func (c *Calculator) fail(cs csdomain.CustomerService, order *orderdomain.Order, err error) {
	fields := []zap.Field{
		zap.String("customer_service_id", cs.ID.String()),
		zap.String("charge_type", string(cs.ChargeType())),
		zap.Error(err),
	}
	if order != nil {
		fields = append(fields, zap.String("order_id", order.ID.String()))
	}
	c.log.Error("cost calculation fell back to zero", fields...)
	c.metrics.RecordCalculationFailure(string(cs.ChargeType()))
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func clamp(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	return amount.Round(2)
}
