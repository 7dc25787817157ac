package handlers

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewAuthHandler),
	fx.Provide(NewMessagesHandler),
	fx.Invoke(RegisterRoutes),
)
