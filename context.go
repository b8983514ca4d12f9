package tinycore

import (
	"context"
	"reflect"
)

type coreCtxKey struct{}

// WithContainer returns ctx in which core is the ambient container.
// It shadows container of ctx, if any.
// Passing nil core detaches ctx from ambient container.
func WithContainer(ctx context.Context, core Core) context.Context {
	return context.WithValue(ctx, coreCtxKey{}, core)
}

// Provide runs scope with core being the ambient container.
// Outer ambient container is untouched and visible again after scope returns.
func Provide(ctx context.Context, core Core, scope func(ctx context.Context) error) error {
	return scope(WithContainer(ctx, core))
}

// FromContext returns the ambient container of ctx.
func FromContext(ctx context.Context) (Core, error) {
	if ctx == nil {
		return nil, new(NoContainerError)
	}

	core, ok := ctx.Value(coreCtxKey{}).(Core)
	if !ok || core == nil {
		return nil, new(NoContainerError)
	}

	return core, nil
}

type storeProvider[S any] interface {
	Core
	Store() *StoreProxy[S]
}

func storeFromContext[S any](ctx context.Context) (*StoreProxy[S], error) {
	core, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}

	provider, ok := core.(storeProvider[S])
	if !ok {
		return nil, newContainerTypeError(reflect.TypeOf((*StoreProxy[S])(nil)), core)
	}

	return provider.Store(), nil
}
