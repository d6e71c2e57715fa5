package billingreport

import (
	"github.com/smallbiznis/orderbill/internal/billingreport/repository"
	"github.com/smallbiznis/orderbill/internal/billingreport/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billingreport.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
