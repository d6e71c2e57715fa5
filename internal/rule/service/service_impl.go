package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	"github.com/smallbiznis/orderbill/internal/rule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB                  *gorm.DB
	Log                 *zap.Logger
	GenID               *snowflake.Node
	Repo                domain.Repository
	CustomerServiceRepo csdomain.Repository
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	genID  *snowflake.Node
	repo   domain.Repository
	csRepo csdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("rule.service"),
		genID:  p.GenID,
		repo:   p.Repo,
		csRepo: p.CustomerServiceRepo,
	}
}

func (s *Service) CreateRuleGroup(ctx context.Context, req domain.CreateRuleGroupRequest) (domain.RuleGroup, error) {
	csID, err := parseID(req.CustomerServiceID)
	if err != nil {
		return domain.RuleGroup{}, err
	}
	logic, ok := domain.ParseLogicOperator(req.LogicOperator)
	if !ok {
		return domain.RuleGroup{}, domain.ErrInvalidLogicOperator
	}
	if len(req.Rules) == 0 {
		return domain.RuleGroup{}, domain.ErrEmptyRuleGroup
	}

	cs, err := s.csRepo.FindByID(ctx, s.db, csID)
	if err != nil {
		return domain.RuleGroup{}, err
	}
	if cs == nil {
		return domain.RuleGroup{}, domain.ErrCustomerServiceMissing
	}

	now := time.Now().UTC()
	group := domain.RuleGroup{
		ID:                s.genID.Generate(),
		CustomerServiceID: csID,
		Name:              strings.TrimSpace(req.Name),
		LogicOperator:     logic,
		CreatedAt:         now,
		Rules:             make([]domain.Rule, 0, len(req.Rules)),
	}
	for _, rr := range req.Rules {
		rule, err := s.buildRule(rr, now)
		if err != nil {
			return domain.RuleGroup{}, err
		}
		rule.RuleGroupID = group.ID
		group.Rules = append(group.Rules, rule)
	}

	if err := s.repo.InsertGroup(ctx, s.db, &group); err != nil {
		return domain.RuleGroup{}, err
	}

	s.log.Info("rule group created",
		zap.String("customer_service_id", csID.String()),
		zap.String("rule_group_id", group.ID.String()),
		zap.Int("rules", len(group.Rules)),
	)
	return group, nil
}

func (s *Service) ListRuleGroups(ctx context.Context, rawCustomerServiceID string) ([]domain.RuleGroup, error) {
	csID, err := parseID(rawCustomerServiceID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindGroupsByCustomerServices(ctx, s.db, []snowflake.ID{csID})
}

// SetTierConfig validates raw and attaches it to the rule, promoting the
// rule to advanced.
func (s *Service) SetTierConfig(ctx context.Context, rawRuleID string, raw json.RawMessage) (domain.Rule, error) {
	id, err := parseID(rawRuleID)
	if err != nil {
		return domain.Rule{}, err
	}
	if _, err := domain.ParseTierConfig(raw); err != nil {
		return domain.Rule{}, err
	}

	rule, err := s.repo.FindRuleByID(ctx, s.db, id)
	if err != nil {
		return domain.Rule{}, err
	}
	if rule == nil {
		return domain.Rule{}, domain.ErrNotFound
	}

	tierConfig := datatypes.JSON(raw)
	if err := s.repo.UpdateAdvanced(ctx, s.db, id, tierConfig); err != nil {
		return domain.Rule{}, err
	}
	rule.Kind = domain.KindAdvanced
	rule.TierConfig = tierConfig
	return *rule, nil
}

func (s *Service) buildRule(req domain.CreateRuleRequest, now time.Time) (domain.Rule, error) {
	field := domain.Field(strings.ToLower(strings.TrimSpace(req.Field)))
	if field.Kind() == domain.FieldKindUnknown {
		return domain.Rule{}, domain.ErrInvalidField
	}
	op, ok := domain.ParseOperator(req.Operator)
	if !ok {
		return domain.Rule{}, domain.ErrInvalidOperator
	}

	rule := domain.Rule{
		ID:        s.genID.Generate(),
		Field:     field,
		Operator:  op,
		Value:     strings.TrimSpace(req.Value),
		Kind:      domain.KindBasic,
		CreatedAt: now,
	}
	if req.AdjustmentAmount != nil {
		rule.AdjustmentAmount = decimal.NewNullDecimal(req.AdjustmentAmount.Round(2))
	}
	if hasPayload(req.TierConfig) {
		if _, err := domain.ParseTierConfig(req.TierConfig); err != nil {
			return domain.Rule{}, err
		}
		rule.Kind = domain.KindAdvanced
		rule.TierConfig = datatypes.JSON(req.TierConfig)
	}
	if hasPayload(req.Calculations) {
		if _, err := domain.ParseCalculations(req.Calculations); err != nil {
			return domain.Rule{}, err
		}
		rule.Kind = domain.KindAdvanced
		rule.Calculations = datatypes.JSON(req.Calculations)
	}
	return rule, nil
}

func hasPayload(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed != "" && trimmed != "null"
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
