package calculator

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/config"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	productdomain "github.com/smallbiznis/orderbill/internal/product/domain"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
	"github.com/smallbiznis/orderbill/internal/sku"
)

// CallContext holds the lookups shared by every order of one report
// generation. It is owned by a single goroutine and discarded afterwards.
type CallContext struct {
	CustomerID snowflake.ID
	Engine     config.EngineConfig
	Normalizer *sku.Normalizer

	groups   map[snowflake.ID][]ruledomain.RuleGroup
	excluded map[string]struct{}
	products map[string]productdomain.Product
	resolved map[string]struct{}
}

// NewCallContext indexes groups by customer service and collects the SKUs
// claimed by SKU-scoped quantity services of the customer.
func NewCallContext(customerID snowflake.ID, engine config.EngineConfig, assignments []csdomain.CustomerService, groups []ruledomain.RuleGroup) *CallContext {
	cc := &CallContext{
		CustomerID: customerID,
		Engine:     engine,
		Normalizer: sku.NewNormalizer(),
		groups:     make(map[snowflake.ID][]ruledomain.RuleGroup),
		excluded:   make(map[string]struct{}),
		products:   make(map[string]productdomain.Product),
		resolved:   make(map[string]struct{}),
	}
	for _, g := range groups {
		cc.groups[g.CustomerServiceID] = append(cc.groups[g.CustomerServiceID], g)
	}
	for _, cs := range assignments {
		if cs.ChargeType() != csdomain.ChargeTypeQuantity {
			continue
		}
		for _, key := range cs.AssignedSKUs() {
			cc.excluded[key] = struct{}{}
		}
	}
	return cc
}

func (cc *CallContext) RuleGroups(customerServiceID snowflake.ID) []ruledomain.RuleGroup {
	return cc.groups[customerServiceID]
}

// IsExcluded reports whether a normalised SKU belongs to a SKU-scoped
// quantity service.
func (cc *CallContext) IsExcluded(key string) bool {
	_, ok := cc.excluded[key]
	return ok
}

// TierRules returns the advanced rules carrying a tier config for the
// assignment, in group then rule order.
func (cc *CallContext) TierRules(customerServiceID snowflake.ID) []ruledomain.Rule {
	var out []ruledomain.Rule
	for _, g := range cc.groups[customerServiceID] {
		for _, r := range g.Rules {
			if r.HasTierConfig() {
				out = append(out, r)
			}
		}
	}
	return out
}

// Products resolves SKUs through catalog, fetching each SKU at most once
// per call.
func (cc *CallContext) Products(ctx context.Context, catalog productdomain.Catalog, skus []string) (map[string]productdomain.Product, error) {
	var missing []string
	for _, key := range skus {
		if _, ok := cc.resolved[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 && catalog != nil {
		found, err := catalog.FindBySKUs(ctx, cc.CustomerID, missing)
		if err != nil {
			return nil, err
		}
		for key, p := range found {
			cc.products[key] = p
		}
		for _, key := range missing {
			cc.resolved[key] = struct{}{}
		}
	}

	out := make(map[string]productdomain.Product, len(skus))
	for _, key := range skus {
		if p, ok := cc.products[key]; ok {
			out[key] = p
		}
	}
	return out, nil
}
