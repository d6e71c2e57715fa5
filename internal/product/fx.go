package product

import (
	"github.com/smallbiznis/orderbill/internal/product/domain"
	"github.com/smallbiznis/orderbill/internal/product/repository"
	"github.com/smallbiznis/orderbill/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc domain.Service) domain.Catalog { return svc }),
)
