package tinycore

import (
	"fmt"

	"go.uber.org/zap"
)

var ErrNilStore = fmt.Errorf("store cannot be nil")

// Factory fixes state type S and service-map struct M once,
// so they do not have to be repeated where containers are built.
type Factory[S, M any] struct {
	schema *schema
	opts   []Option
}

// Returns new Factory. opts are passed to registry of every container.
func NewFactory[S, M any](opts ...Option) *Factory[S, M] {
	return &Factory[S, M]{schema: newSchema[M](), opts: opts}
}

// Bind checks services against M and returns Class producing containers
// over store and services.
// No Class is returned if any service of M is missing.
func (f *Factory[S, M]) Bind(store Store[S], services ServiceMap) (*Class[S, M], error) {
	if store == nil {
		return nil, ErrNilStore
	}

	records, err := f.schema.records(services)
	if err != nil {
		return nil, err
	}

	return &Class[S, M]{
		store:   NewStoreProxy(store),
		records: records,
		schema:  f.schema,
		opts:    f.opts,
	}, nil
}

// MustBind is like Bind but panics on error.
func (f *Factory[S, M]) MustBind(store Store[S], services ServiceMap) *Class[S, M] {
	class, err := f.Bind(store, services)
	if err != nil {
		panic(err)
	}

	return class
}

// Class produces containers bound to the same store and services.
type Class[S, M any] struct {
	store   *StoreProxy[S]
	schema  *schema
	records []*record
	opts    []Option
}

// New returns new Container.
// Containers share store, instances and factories,
// but each one constructs its own lazy services.
func (c *Class[S, M]) New() *Container[S, M] {
	registry := NewRegistry(c.opts...)

	for _, rec := range c.records {
		// only ErrClosed is possible here: records are validated and unique,
		// but a cancelled cleanup context may close the registry first
		if err := registry.add(rec); err != nil {
			registry.log.Debug("service not added", zap.String("service", rec.name), zap.Error(err))
		}
	}

	return &Container[S, M]{
		store:    c.store,
		registry: registry,
		schema:   c.schema,
	}
}
