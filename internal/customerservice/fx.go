package customerservice

import (
	"github.com/smallbiznis/orderbill/internal/customerservice/repository"
	"github.com/smallbiznis/orderbill/internal/customerservice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customerservice.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
