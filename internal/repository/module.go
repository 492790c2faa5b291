package repository

import "go.uber.org/fx"

var Module = fx.Options(
	fx.Provide(NewUsers),
	fx.Provide(NewLedger),
	fx.Provide(NewPending),
)
