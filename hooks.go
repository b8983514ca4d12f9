package tinycore

import (
	"context"
	"reflect"
)

// SelectorHook applies selector to state of the ambient container.
// Inside (*Consumer).Evaluate the consumer is notified
// when the selected value changes.
type SelectorHook[S any] func(ctx context.Context, selector func(S) any) (any, error)

// ServiceHook resolves service of the ambient container.
// Only names of M are accepted.
type ServiceHook[M any] func(ctx context.Context, name string) (any, error)

// Returns SelectorHook for containers with state S.
func NewSelectorHook[S any]() SelectorHook[S] {
	return func(ctx context.Context, selector func(S) any) (any, error) {
		store, err := storeFromContext[S](ctx)
		if err != nil {
			return nil, err
		}

		value := selector(store.Snapshot())

		if consumer := consumerFromContext(ctx); consumer != nil {
			consumer.track(store, func(snapshot any) any { return selector(snapshot.(S)) }, value)
		}

		return value, nil
	}
}

// Returns ServiceHook for containers with service-map struct M.
func NewServiceHook[M any]() ServiceHook[M] {
	s := newSchema[M]()

	return func(ctx context.Context, name string) (any, error) {
		if s.err != nil {
			return nil, s.err
		}

		if !s.has(name) {
			return nil, newUnknownServiceError(name, s.names)
		}

		core, err := FromContext(ctx)
		if err != nil {
			return nil, err
		}

		return core.GetService(name)
	}
}

// UseSelector is typed form of hook call.
func UseSelector[S, V any](ctx context.Context, hook SelectorHook[S], selector func(S) V) (V, error) {
	var zero V

	value, err := hook(ctx, func(state S) any { return selector(state) })
	if err != nil {
		return zero, err
	}

	typed, _ := value.(V)

	return typed, nil
}

// UseService is typed form of hook call.
func UseService[T, M any](ctx context.Context, hook ServiceHook[M], name string) (T, error) {
	var zero T

	service, err := hook(ctx, name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, newServiceTypeError(name, reflect.TypeOf(new(T)).Elem(), reflect.TypeOf(service))
	}

	return typed, nil
}
