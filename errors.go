package tinycore

import (
	"fmt"
	"reflect"
	"strings"
)

const (
	constructorTemplates string = "func() T | func() (T, error) | func() (T, tinycore.Cleanup, error)"
)

var (
	errorInterface = reflect.TypeOf((*error)(nil)).Elem()
	cleanUpType    = reflect.TypeOf((*func())(nil)).Elem()

	ErrVariadicConstructor = fmt.Errorf("variadic constructor is not supported")
	ErrDuplicateService    = fmt.Errorf("registry has already registered service with this name")
	ErrEmptyServiceName    = fmt.Errorf("service name cannot be empty")
	ErrNilService          = fmt.Errorf("service cannot be nil")
	ErrClosed              = fmt.Errorf("registry is closed")
)

func newConstructorUnsupportedError(constructorType reflect.Type) error {
	return newBadConstructorError(
		&ConstructorTemplateError{SupportedConstructorTemplates: constructorTemplates},
		constructorType,
	)
}

func newBadConstructorError(cause error, constructorType reflect.Type) error {
	return &BadConstructorError{
		cause:           cause,
		ConstructorType: constructorType,
	}
}

type BadConstructorError struct {
	cause           error
	ConstructorType reflect.Type
}

func (err *BadConstructorError) Error() string {
	return fmt.Sprintf("bad constructor %s: %s", err.ConstructorType, err.cause)
}

func (err *BadConstructorError) Unwrap() error {
	return err.cause
}

type ConstructorTemplateError struct {
	SupportedConstructorTemplates string
}

func (err *ConstructorTemplateError) Error() string {
	return fmt.Sprintf("only %s can be used as a service factory", err.SupportedConstructorTemplates)
}

func newBadServiceError(cause error, name string) error {
	return &BadServiceError{cause: cause, Name: name}
}

// BadServiceError is returned by (*Registry).Register.
type BadServiceError struct {
	cause error
	Name  string
}

func (err *BadServiceError) Error() string {
	return fmt.Sprintf("cannot register service %q: %s", err.Name, err.cause)
}

func (err *BadServiceError) Unwrap() error {
	return err.cause
}

func newUnknownServiceError(name string, known []string) error {
	return &UnknownServiceError{Name: name, Known: known}
}

// UnknownServiceError is returned when a name is not registered.
// Known lists valid names in sorted order.
type UnknownServiceError struct {
	Name  string
	Known []string
}

func (err *UnknownServiceError) Error() string {
	return fmt.Sprintf("unknown service %q, known services: [%s]", err.Name, strings.Join(err.Known, ", "))
}

func newServiceInitError(cause error, name string) error {
	return &ServiceInitError{cause: cause, Name: name}
}

// ServiceInitError is returned by the Get call that triggered
// a failed lazy construction.
type ServiceInitError struct {
	cause error
	Name  string
}

func (err *ServiceInitError) Error() string {
	return fmt.Sprintf("cannot initialize service %q: %s", err.Name, err.cause)
}

func (err *ServiceInitError) Unwrap() error {
	return err.cause
}

func newMissingServiceError(missing []string) error {
	return &MissingServiceError{Missing: missing}
}

// MissingServiceError is returned by (*Factory).Bind when the service map
// does not cover the service-map struct.
type MissingServiceError struct {
	Missing []string
}

func (err *MissingServiceError) Error() string {
	return fmt.Sprintf("missing services: [%s]", strings.Join(err.Missing, ", "))
}

func newServiceTypeError(name string, expected, got reflect.Type) error {
	return &ServiceTypeError{Name: name, Expected: expected, Got: got}
}

type ServiceTypeError struct {
	Expected reflect.Type
	Got      reflect.Type
	Name     string
}

func (err *ServiceTypeError) Error() string {
	return fmt.Sprintf("service %q is %s, expected %s", err.Name, err.Got, err.Expected)
}

// NoContainerError is returned by lookups made outside any provider scope.
type NoContainerError struct{}

func (err *NoContainerError) Error() string {
	return "no container is reachable from context"
}

func newContainerTypeError(expected reflect.Type, got Core) error {
	return &ContainerTypeError{Expected: expected, Got: reflect.TypeOf(got)}
}

// ContainerTypeError is returned when the ambient container
// was built for a different store or service-map type.
type ContainerTypeError struct {
	Expected reflect.Type
	Got      reflect.Type
}

func (err *ContainerTypeError) Error() string {
	return fmt.Sprintf("ambient container %s does not provide %s", err.Got, err.Expected)
}

type SchemaError struct {
	T reflect.Type
	// Duplicate is set when two fields of T declare the same service name.
	Duplicate string
}

func (err *SchemaError) Error() string {
	if err.Duplicate != "" {
		return fmt.Sprintf("service map %s declares service %q more than once", err.T, err.Duplicate)
	}

	return fmt.Sprintf("service map can only be a struct, got %s", err.T)
}
