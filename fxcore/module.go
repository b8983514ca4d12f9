// Package fxcore provides tinycore containers to fx applications.
package fxcore

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/andriiyaremenko/tinycore"
)

// Module provides *tinycore.Container[S, M] built by class,
// and the same container as tinycore.Core.
// Container is closed when application stops.
func Module[S, M any](class *tinycore.Class[S, M]) fx.Option {
	return fx.Module(
		"tinycore",
		fx.Provide(
			func(lc fx.Lifecycle) *tinycore.Container[S, M] {
				core := class.New()

				lc.Append(fx.Hook{
					OnStop: func(context.Context) error { return core.Close() },
				})

				return core
			},
			func(core *tinycore.Container[S, M]) tinycore.Core { return core },
		),
	)
}

type warmupParams[S, M any] struct {
	fx.In

	Lifecycle fx.Lifecycle
	Core      *tinycore.Container[S, M]
	Logger    *zap.Logger `optional:"true"`
}

// Warmup constructs all lazy services of the container on application start.
// Start fails if any of them cannot be constructed.
func Warmup[S, M any]() fx.Option {
	return fx.Invoke(func(p warmupParams[S, M]) {
		core, log := p.Core, p.Logger
		if log == nil {
			log = zap.NewNop()
		}

		p.Lifecycle.Append(fx.Hook{
			OnStart: func(context.Context) error {
				if err := core.Warmup(); err != nil {
					log.Error("services warmup failed", zap.Error(err))
					return err
				}

				log.Debug("services warmed up", zap.Strings("services", core.ServiceNames()))

				return nil
			},
		})
	})
}
