package tinycore

import (
	"fmt"
	"reflect"
	"slices"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type constructorType int

const (
	onlyService constructorType = iota
	withError
	withErrorAndCleanUp
)

type instance struct {
	value any
}

// Instance marks value to be registered as is,
// even if it is a function that could be mistaken for a factory.
func Instance(value any) any {
	return instance{value: value}
}

type record struct {
	value           any
	constructor     any
	serviceType     reflect.Type
	name            string
	constructorType constructorType
	lazy            bool
}

type serviceSlot struct {
	value *any
	mu    sync.Mutex
}

// Registry maps service names to services.
// Instances are registered eagerly,
// factories are called on first Get and their result is cached.
// A failed factory is not cached: next Get calls it again.
type Registry struct {
	log       *zap.Logger
	records   map[string]*record
	slots     map[string]*serviceSlot
	closed    chan struct{}
	closeErr  error
	cleanups  cleanupStack
	rwm       sync.RWMutex
	closeOnce sync.Once
}

// Returns new Registry.
func NewRegistry(opts ...Option) *Registry {
	conf := newConfiguration(opts)

	r := &Registry{
		log:     conf.Logger,
		records: make(map[string]*record),
		slots:   make(map[string]*serviceSlot),
		closed:  make(chan struct{}),
	}

	if conf.Ctx != nil {
		go cleanupWorker(conf.Ctx, r.closed, r.Close, r.log)
	}

	return r
}

// Register adds service or factory under name.
// Anything that is not a function is registered as an instance,
// use Instance to register a function as is.
func (r *Registry) Register(name string, serviceOrFactory any) error {
	rec, err := newRecord(name, serviceOrFactory)
	if err != nil {
		return err
	}

	return r.add(rec)
}

func (r *Registry) add(rec *record) error {
	r.rwm.Lock()
	defer r.rwm.Unlock()

	if r.isClosed() {
		return newBadServiceError(ErrClosed, rec.name)
	}

	if _, ok := r.records[rec.name]; ok {
		return newBadServiceError(ErrDuplicateService, rec.name)
	}

	r.records[rec.name] = rec
	if rec.lazy {
		r.slots[rec.name] = &serviceSlot{}
	}

	return nil
}

func newRecord(name string, serviceOrFactory any) (*record, error) {
	if name == "" {
		return nil, newBadServiceError(ErrEmptyServiceName, name)
	}

	if inst, ok := serviceOrFactory.(instance); ok {
		if inst.value == nil {
			return nil, newBadServiceError(ErrNilService, name)
		}

		return &record{name: name, value: inst.value, serviceType: reflect.TypeOf(inst.value)}, nil
	}

	if serviceOrFactory == nil {
		return nil, newBadServiceError(ErrNilService, name)
	}

	t := reflect.TypeOf(serviceOrFactory)
	if t.Kind() != reflect.Func {
		return &record{name: name, value: serviceOrFactory, serviceType: t}, nil
	}

	cType, err := getConstructorType(t)
	if err != nil {
		return nil, newBadServiceError(err, name)
	}

	return &record{
		name:            name,
		constructor:     serviceOrFactory,
		constructorType: cType,
		serviceType:     t.Out(0),
		lazy:            true,
	}, nil
}

func getConstructorType(t reflect.Type) (constructorType, error) {
	cType := onlyService

	if t.IsVariadic() {
		return cType, newBadConstructorError(ErrVariadicConstructor, t)
	}

	if t.NumIn() > 0 {
		return cType, newConstructorUnsupportedError(t)
	}

	switch t.NumOut() {
	case 1:
		if out := t.Out(0); out.Implements(errorInterface) {
			return cType, newConstructorUnsupportedError(t)
		}
	case 2:
		cType = withError

		if errType := t.Out(1); errType != errorInterface {
			return cType, newConstructorUnsupportedError(t)
		}
	case 3:
		cType = withErrorAndCleanUp

		if cleanupType := t.Out(1); !cleanupType.ConvertibleTo(cleanUpType) || cleanupType.Kind() != reflect.Func {
			return cType, newConstructorUnsupportedError(t)
		}

		if errType := t.Out(2); errType != errorInterface {
			return cType, newConstructorUnsupportedError(t)
		}
	default:
		return cType, newConstructorUnsupportedError(t)
	}

	return cType, nil
}

// Get returns service registered under name.
func (r *Registry) Get(name string) (any, error) {
	r.rwm.RLock()
	rec, ok := r.records[name]
	slot := r.slots[name]
	r.rwm.RUnlock()

	if r.isClosed() {
		return nil, ErrClosed
	}

	if !ok {
		return nil, newUnknownServiceError(name, r.Names())
	}

	if !rec.lazy {
		return rec.value, nil
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.value != nil {
		return *slot.value, nil
	}

	service, cleanup, err := construct(rec)
	if err != nil {
		r.log.Debug("service construction failed", zap.String("service", name), zap.Error(err))
		return nil, err
	}

	if cleanup != nil && !r.cleanups.push(name, cleanup) {
		_ = cleanup.CallWithRecovery(r.log, name)
		return nil, ErrClosed
	}

	slot.value = &service
	r.log.Debug("service constructed", zap.String("service", name))

	return service, nil
}

func construct(rec *record) (service any, cleanup Cleanup, err error) {
	defer func() {
		if rp := recover(); rp != nil {
			err = newServiceInitError(fmt.Errorf("recovered from panic: %v", rp), rec.name)
		}
	}()

	values := reflect.ValueOf(rec.constructor).Call(nil)

	switch rec.constructorType {
	case withError:
		if err, ok := values[1].Interface().(error); ok && err != nil {
			return nil, nil, newServiceInitError(err, rec.name)
		}
	case withErrorAndCleanUp:
		if err, ok := values[2].Interface().(error); ok && err != nil {
			return nil, nil, newServiceInitError(err, rec.name)
		}

		if !values[1].IsNil() {
			cleanup = Cleanup(values[1].Convert(cleanUpType).Interface().(func()))
		}
	}

	serviceV := values[0]
	if isNil(serviceV) {
		return nil, nil, newServiceInitError(ErrNilService, rec.name)
	}

	return serviceV.Interface(), cleanup, nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// Names returns registered service names in sorted order.
func (r *Registry) Names() []string {
	r.rwm.RLock()
	defer r.rwm.RUnlock()

	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func (r *Registry) Has(name string) bool {
	r.rwm.RLock()
	defer r.rwm.RUnlock()

	_, ok := r.records[name]

	return ok
}

// Warmup constructs every lazy service that is not constructed yet.
// All construction errors are returned combined.
func (r *Registry) Warmup() error {
	var err error

	for _, name := range r.Names() {
		if _, getErr := r.Get(name); getErr != nil {
			err = multierr.Append(err, getErr)
		}
	}

	return err
}

// Close calls cleanups of constructed services in reverse construction order.
// Calling Close more than once is safe.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		r.rwm.Lock()
		close(r.closed)
		r.rwm.Unlock()

		r.closeErr = multierr.Combine(r.cleanups.clean(r.log)...)
	})

	return r.closeErr
}

func (r *Registry) isClosed() bool {
	select {
	case <-r.closed:
		return true
	default:
		return false
	}
}
