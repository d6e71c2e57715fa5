package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/samber/lo"
	"github.com/smallbiznis/orderbill/internal/product/domain"
	"github.com/smallbiznis/orderbill/internal/sku"
	"github.com/smallbiznis/orderbill/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("product.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateProductRequest) (domain.Product, error) {
	customerID, err := snowflake.ParseString(strings.TrimSpace(req.CustomerID))
	if err != nil || customerID == 0 {
		return domain.Product{}, domain.ErrInvalidCustomer
	}
	key := sku.Normalize(req.SKU)
	if key == "" {
		return domain.Product{}, domain.ErrInvalidSKU
	}
	caseSize := req.CaseSize
	if caseSize == 0 {
		caseSize = 1
	}
	if caseSize < 0 {
		return domain.Product{}, domain.ErrInvalidCaseSize
	}
	unit := strings.ToLower(strings.TrimSpace(req.Unit))
	if unit == "" {
		unit = domain.UnitEach
	}

	product := domain.Product{
		ID:         s.genID.Generate(),
		CustomerID: customerID,
		SKU:        key,
		Name:       strings.TrimSpace(req.Name),
		CaseSize:   caseSize,
		Unit:       unit,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, s.db, &product); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Product{}, domain.ErrDuplicateSKU
		}
		return domain.Product{}, err
	}
	return product, nil
}

func (s *Service) FindBySKUs(ctx context.Context, customerID snowflake.ID, skus []string) (map[string]domain.Product, error) {
	keys := lo.Uniq(lo.FilterMap(skus, func(v string, _ int) (string, bool) {
		key := sku.Normalize(v)
		return key, key != ""
	}))
	items, err := s.repo.FindBySKUs(ctx, s.db, customerID, keys)
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.Product, len(items))
	for _, item := range items {
		if item != nil {
			out[item.SKU] = *item
		}
	}
	return out, nil
}
