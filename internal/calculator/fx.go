package calculator

import "go.uber.org/fx"

var Module = fx.Module("calculator",
	fx.Provide(New),
)
