package tinycore

import (
	"reflect"
)

var _ Core = new(Container[struct{}, struct{}])

// Container composes one StoreProxy and one Registry.
// S is the state type, M is the service-map struct.
type Container[S, M any] struct {
	store    *StoreProxy[S]
	registry *Registry
	schema   *schema
}

func (c *Container[S, M]) GetService(name string) (any, error) {
	return c.registry.Get(name)
}

func (c *Container[S, M]) ServiceNames() []string {
	return c.registry.Names()
}

// Services returns M with every field set to its service.
// Lazy services are constructed.
func (c *Container[S, M]) Services() (M, error) {
	var services M

	v, err := c.schema.fill(c.registry.Get)
	if err != nil {
		return services, err
	}

	return v.Interface().(M), nil
}

func (c *Container[S, M]) Store() *StoreProxy[S] {
	return c.store
}

func (c *Container[S, M]) Snapshot() S {
	return c.store.Snapshot()
}

// Warmup constructs all lazy services.
func (c *Container[S, M]) Warmup() error {
	return c.registry.Warmup()
}

// Close runs cleanups of constructed services.
// Store is not owned by container and stays untouched.
func (c *Container[S, M]) Close() error {
	return c.registry.Close()
}

// Service returns service registered in core under name as T.
func Service[T any](core Core, name string) (T, error) {
	var zero T

	service, err := core.GetService(name)
	if err != nil {
		return zero, err
	}

	typed, ok := service.(T)
	if !ok {
		return zero, newServiceTypeError(name, reflect.TypeOf(new(T)).Elem(), reflect.TypeOf(service))
	}

	return typed, nil
}

// MustService is like Service but panics if service cannot be returned.
func MustService[T any](core Core, name string) T {
	service, err := Service[T](core, name)
	if err != nil {
		panic(err)
	}

	return service
}
