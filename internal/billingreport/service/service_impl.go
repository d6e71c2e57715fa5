package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/orderbill/internal/billingreport/domain"
	"github.com/smallbiznis/orderbill/internal/calculator"
	"github.com/smallbiznis/orderbill/internal/config"
	customerdomain "github.com/smallbiznis/orderbill/internal/customer/domain"
	csdomain "github.com/smallbiznis/orderbill/internal/customerservice/domain"
	"github.com/smallbiznis/orderbill/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/orderbill/internal/order/domain"
	ruledomain "github.com/smallbiznis/orderbill/internal/rule/domain"
	"github.com/smallbiznis/orderbill/internal/rule/evaluator"
	"github.com/smallbiznis/orderbill/internal/sku"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultListLimit = 50

type Params struct {
	fx.In

	DB                  *gorm.DB
	Log                 *zap.Logger
	GenID               *snowflake.Node
	Engine              *config.EngineConfigHolder
	Repo                domain.Repository
	CustomerRepo        customerdomain.Repository
	CustomerServiceRepo csdomain.Repository
	OrderRepo           orderdomain.Repository
	RuleRepo            ruledomain.Repository
	Evaluator           *evaluator.Evaluator
	Calculator          *calculator.Calculator
	Metrics             *metrics.ReportMetrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	engine       *config.EngineConfigHolder
	repo         domain.Repository
	customerRepo customerdomain.Repository
	csRepo       csdomain.Repository
	orderRepo    orderdomain.Repository
	ruleRepo     ruledomain.Repository
	evaluator    *evaluator.Evaluator
	calculator   *calculator.Calculator
	metrics      *metrics.ReportMetrics
	tracer       trace.Tracer
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("billingreport.service"),
		genID:        p.GenID,
		engine:       p.Engine,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		csRepo:       p.CustomerServiceRepo,
		orderRepo:    p.OrderRepo,
		ruleRepo:     p.RuleRepo,
		evaluator:    p.Evaluator,
		calculator:   p.Calculator,
		metrics:      p.Metrics,
		tracer:       otel.Tracer("orderbill/billingreport"),
	}
}

// request is a validated GenerateRequest.
type request struct {
	customer    customerdomain.Customer
	start       time.Time
	end         time.Time
	assignments []csdomain.CustomerService
	selected    []csdomain.CustomerService
	filter      *[]string
}

func (s *Service) Generate(ctx context.Context, req domain.GenerateRequest) (*domain.BillingReport, error) {
	ctx, span := s.tracer.Start(ctx, "billingreport.generate",
		trace.WithAttributes(attribute.String("customer_id", req.CustomerID)),
	)
	defer span.End()
	started := time.Now()

	report, err := s.generate(ctx, req)
	if err != nil {
		status := metrics.ReportStatusFailed
		if domain.IsValidationError(err) {
			status = metrics.ReportStatusValidationError
		} else {
			s.log.Error("report generation failed", zap.String("customer_id", req.CustomerID), zap.Error(err))
		}
		s.metrics.RecordReport(status, time.Since(started))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	s.metrics.RecordReport(metrics.ReportStatusSuccess, time.Since(started))
	span.SetAttributes(
		attribute.String("report_id", report.ID.String()),
		attribute.Int("order_costs", len(report.OrderCosts)),
		attribute.String("total_amount", report.TotalAmount.StringFixed(2)),
	)
	s.log.Info("billing report generated",
		zap.String("report_id", report.ID.String()),
		zap.String("customer_id", report.CustomerID.String()),
		zap.Int("order_costs", len(report.OrderCosts)),
		zap.String("total_amount", report.TotalAmount.StringFixed(2)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return report, nil
}

func (s *Service) generate(ctx context.Context, req domain.GenerateRequest) (*domain.BillingReport, error) {
	in, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	report := &domain.BillingReport{
		ID:            s.genID.Generate(),
		CustomerID:    in.customer.ID,
		CustomerName:  in.customer.Name,
		StartDate:     in.start,
		EndDate:       in.end,
		TotalAmount:   decimal.Zero,
		ServiceTotals: domain.ServiceTotals{},
		Metadata:      datatypes.NewJSONType(domain.ReportMetadata{CustomerServiceIDs: in.filter}),
		CreatedAt:     time.Now().UTC(),
	}

	orders, err := s.orderRepo.FindByCustomer(ctx, s.db, in.customer.ID, in.start, in.end)
	if err != nil {
		return nil, &domain.GenerationError{Err: fmt.Errorf("load orders: %w", err)}
	}

	if len(orders) > 0 && len(in.selected) > 0 {
		if err := s.priceOrders(ctx, report, in, orders); err != nil {
			return nil, err
		}
	}

	report.RecalculateTotal()
	if err := report.Validate(); err != nil {
		return nil, &domain.GenerationError{Err: err}
	}
	if err := s.repo.Create(ctx, s.db, report); err != nil {
		return nil, &domain.GenerationError{Err: fmt.Errorf("persist report: %w", err)}
	}
	return report, nil
}

func (s *Service) priceOrders(ctx context.Context, report *domain.BillingReport, in request, orders []orderdomain.Order) error {
	ids := lo.Map(in.selected, func(cs csdomain.CustomerService, _ int) snowflake.ID { return cs.ID })
	groups, err := s.ruleRepo.FindGroupsByCustomerServices(ctx, s.db, ids)
	if err != nil {
		return &domain.GenerationError{Err: fmt.Errorf("load rule groups: %w", err)}
	}

	engine := s.engine.Get()
	cc := calculator.NewCallContext(in.customer.ID, engine, in.assignments, groups)

	batchSize := engine.OrderBatchSize
	if batchSize <= 0 {
		batchSize = len(orders)
	}
	for _, batch := range lo.Chunk(orders, batchSize) {
		for i := range batch {
			if oc, ok := s.priceOrder(ctx, cc, in.selected, &batch[i]); ok {
				report.AddOrderCost(oc)
			}
		}
	}
	return nil
}

// priceOrder prices every selected assignment against one order. Single
// charge services are billed at most once per order. A panic drops the
// order and never aborts the report.
func (s *Service) priceOrder(ctx context.Context, cc *calculator.CallContext, assignments []csdomain.CustomerService, order *orderdomain.Order) (oc domain.OrderCost, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("order skipped after panic",
				zap.String("order_id", order.ID.String()),
				zap.Any("panic", r),
			)
			s.metrics.RecordOrderFailure()
			oc, ok = domain.OrderCost{}, false
		}
	}()

	if len(order.SKUQuantity) > 0 && !sku.IsValid([]byte(order.SKUQuantity)) {
		// unreadable records are priced as absent
		s.log.Debug("order has unreadable sku records",
			zap.String("order_id", order.ID.String()),
			zap.String("transaction_id", order.TransactionID),
		)
	}

	oc = domain.OrderCost{
		ID:              s.genID.Generate(),
		OrderID:         order.ID,
		TransactionID:   order.TransactionID,
		ReferenceNumber: order.ReferenceNumber,
		OrderDate:       order.CloseDate,
		TotalAmount:     decimal.Zero,
		CreatedAt:       time.Now().UTC(),
	}
	charged := make(map[snowflake.ID]struct{})
	for _, cs := range assignments {
		single := cs.ChargeType() == csdomain.ChargeTypeSingle
		if _, done := charged[cs.ServiceID]; single && done {
			continue
		}

		applies, matched := s.applicable(cc, cs, order)
		if !applies {
			continue
		}
		amount := s.calculator.Calculate(ctx, cc, cs, order)
		if amount.IsPositive() && len(matched) > 0 {
			amount = s.calculator.ApplyAdjustments(ctx, cc, cs, amount, matched, order)
		}
		if !amount.IsPositive() {
			continue
		}

		oc.AddServiceCost(domain.ServiceCost{
			ID:                s.genID.Generate(),
			CustomerServiceID: cs.ID,
			ServiceID:         cs.ServiceID,
			ServiceName:       cs.ServiceName(),
			Amount:            amount,
			CreatedAt:         oc.CreatedAt,
		})
		s.metrics.RecordServiceCost(string(cs.ChargeType()))
		if single {
			charged[cs.ServiceID] = struct{}{}
		}
	}

	billed := len(oc.ServiceCosts) > 0
	s.metrics.RecordOrder(billed)
	return oc, billed
}

// applicable ORs the rule groups of an assignment. An assignment without
// groups always applies.
func (s *Service) applicable(cc *calculator.CallContext, cs csdomain.CustomerService, order *orderdomain.Order) (bool, []ruledomain.Rule) {
	groups := cc.RuleGroups(cs.ID)
	if len(groups) == 0 {
		return true, nil
	}

	var (
		applies bool
		matched []ruledomain.Rule
	)
	for _, g := range groups {
		res := s.evaluator.Match(g, order)
		if res.Applies {
			applies = true
			matched = append(matched, res.Matched...)
		}
	}
	return applies, matched
}

func (s *Service) validate(ctx context.Context, req domain.GenerateRequest) (request, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return request{}, domain.NewValidationError(domain.ErrInvalidCustomer, "customer id %q is not valid", req.CustomerID)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return request{}, domain.NewValidationError(domain.ErrInvalidDateRange, "start and end dates are required")
	}
	start, end := dateOf(req.StartDate), dateOf(req.EndDate)
	if start.After(end) {
		return request{}, domain.NewValidationError(domain.ErrInvalidDateRange,
			"start date %s is after end date %s", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	var filterIDs []snowflake.ID
	if req.CustomerServiceIDs != nil {
		filterIDs = make([]snowflake.ID, 0, len(req.CustomerServiceIDs))
		for _, raw := range req.CustomerServiceIDs {
			id, err := snowflake.ParseString(strings.TrimSpace(raw))
			if err != nil || id == 0 {
				return request{}, domain.NewValidationError(domain.ErrInvalidCustomerService, "customer service id %q is not valid", raw)
			}
			filterIDs = append(filterIDs, id)
		}
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return request{}, &domain.GenerationError{Err: fmt.Errorf("load customer: %w", err)}
	}
	if customer == nil {
		return request{}, domain.NewValidationError(domain.ErrCustomerNotFound, "customer %s does not exist", customerID)
	}

	assignments, err := s.csRepo.FindByCustomer(ctx, s.db, customerID, nil)
	if err != nil {
		return request{}, &domain.GenerationError{Err: fmt.Errorf("load customer services: %w", err)}
	}
	if len(assignments) == 0 {
		return request{}, domain.NewValidationError(domain.ErrNoServicesConfigured, "customer %s has no services configured", customerID)
	}

	in := request{
		customer:    *customer,
		start:       start,
		end:         end,
		assignments: assignments,
		selected:    assignments,
	}
	if filterIDs != nil {
		wanted := lo.SliceToMap(filterIDs, func(id snowflake.ID) (snowflake.ID, struct{}) { return id, struct{}{} })
		in.selected = lo.Filter(assignments, func(cs csdomain.CustomerService, _ int) bool {
			_, ok := wanted[cs.ID]
			return ok
		})
		filter := lo.Map(filterIDs, func(id snowflake.ID, _ int) string { return id.String() })
		in.filter = &filter
	}
	return in, nil
}

func (s *Service) Get(ctx context.Context, rawID string) (*domain.BillingReport, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	report, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, domain.ErrNotFound
	}
	return report, nil
}

func (s *Service) ListByCustomer(ctx context.Context, rawCustomerID string, limit int) ([]domain.BillingReport, error) {
	customerID, err := parseID(rawCustomerID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	items, err := s.repo.ListByCustomer(ctx, s.db, customerID, limit)
	if err != nil {
		return nil, err
	}
	return lo.FromSlicePtr(items), nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	id, err := parseID(rawID)
	if err != nil {
		return err
	}
	report, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return err
	}
	if report == nil {
		return domain.ErrNotFound
	}
	if err := s.repo.Delete(ctx, s.db, id); err != nil {
		return err
	}
	s.log.Info("billing report deleted", zap.String("report_id", id.String()))
	return nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
