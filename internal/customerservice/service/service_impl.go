package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/orderbill/internal/customer/domain"
	"github.com/smallbiznis/orderbill/internal/customerservice/domain"
	"github.com/smallbiznis/orderbill/internal/sku"
	"github.com/smallbiznis/orderbill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         domain.Repository
	CustomerRepo customerdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         domain.Repository
	customerRepo customerdomain.Repository
}

func New(p Params) domain.Manager {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("customerservice.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
	}
}

func (s *Service) CreateService(ctx context.Context, req domain.CreateServiceRequest) (domain.Service, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Service{}, domain.ErrInvalidName
	}
	chargeType, ok := domain.ParseChargeType(req.ChargeType)
	if !ok {
		return domain.Service{}, domain.ErrInvalidChargeType
	}

	now := time.Now().UTC()
	svc := domain.Service{
		ID:         s.genID.Generate(),
		Name:       name,
		ChargeType: chargeType,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.InsertService(ctx, s.db, &svc); err != nil {
		return domain.Service{}, err
	}
	return svc, nil
}

func (s *Service) CreateCustomerService(ctx context.Context, req domain.CreateCustomerServiceRequest) (domain.CustomerService, error) {
	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return domain.CustomerService{}, err
	}
	serviceID, err := parseID(req.ServiceID)
	if err != nil {
		return domain.CustomerService{}, err
	}
	if req.UnitPrice.IsNegative() {
		return domain.CustomerService{}, domain.ErrInvalidUnitPrice
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return domain.CustomerService{}, err
	}
	if customer == nil {
		return domain.CustomerService{}, domain.ErrCustomerNotFound
	}
	svc, err := s.repo.FindServiceByID(ctx, s.db, serviceID)
	if err != nil {
		return domain.CustomerService{}, err
	}
	if svc == nil {
		return domain.CustomerService{}, domain.ErrServiceNotFound
	}

	var skus datatypes.JSON
	if scoped := normalizeSKUs(req.SKUs); len(scoped) > 0 {
		b, err := json.Marshal(scoped)
		if err != nil {
			return domain.CustomerService{}, err
		}
		skus = datatypes.JSON(b)
	}

	now := time.Now().UTC()
	cs := domain.CustomerService{
		ID:         s.genID.Generate(),
		CustomerID: customerID,
		ServiceID:  serviceID,
		UnitPrice:  req.UnitPrice.Round(2),
		SKUs:       skus,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Insert(ctx, s.db, &cs); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.CustomerService{}, domain.ErrDuplicateAssignment
		}
		return domain.CustomerService{}, err
	}
	cs.Service = svc

	s.log.Info("customer service assigned",
		zap.String("customer_id", customerID.String()),
		zap.String("service_id", serviceID.String()),
		zap.String("customer_service_id", cs.ID.String()),
	)
	return cs, nil
}

func (s *Service) GetCustomerService(ctx context.Context, rawID string) (domain.CustomerService, error) {
	id, err := parseID(rawID)
	if err != nil {
		return domain.CustomerService{}, err
	}
	cs, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.CustomerService{}, err
	}
	if cs == nil {
		return domain.CustomerService{}, domain.ErrNotFound
	}
	return *cs, nil
}

func (s *Service) ListByCustomer(ctx context.Context, rawCustomerID string) ([]domain.CustomerService, error) {
	customerID, err := parseID(rawCustomerID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindByCustomer(ctx, s.db, customerID, nil)
}

func normalizeSKUs(values []string) []string {
	n := sku.NewNormalizer()
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		key := n.Normalize(v)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
