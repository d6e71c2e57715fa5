package rule

import (
	"github.com/smallbiznis/orderbill/internal/rule/evaluator"
	"github.com/smallbiznis/orderbill/internal/rule/repository"
	"github.com/smallbiznis/orderbill/internal/rule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(evaluator.New),
)
