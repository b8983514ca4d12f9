/*
This package binds a reactive store and named services into one typed container
and makes that container reachable to any code running within a context.Context.

To install tinycore:

	go get -u github.com/andriiyaremenko/tinycore

How to use:

	type State struct {
		Settings struct {
			Theme string
		}
	}

	type AuthService interface {
		Authenticate() error
	}

	// Services describes which services a container provides.
	// Field name (or `core:"name"` tag) is the service name.
	type Services struct {
		AuthService AuthService
	}

	store := tinycore.NewStore(State{})
	class, err := tinycore.NewFactory[State, Services]().Bind(store, tinycore.ServiceMap{
		// a factory is called on first use, an instance is used as is
		"AuthService": func() (AuthService, error) { return newAuth() },
	})
	if err != nil {
		// handle error: *tinycore.MissingServiceError etc.
	}

	core := class.New()
	defer core.Close()

	auth, err := tinycore.Service[AuthService](core, "AuthService")

Hooks:

	var (
		useSelector = tinycore.NewSelectorHook[State]()
		useService  = tinycore.NewServiceHook[Services]()
	)

	consumer := tinycore.NewConsumer(func() {
		// selected state changed: evaluate again
	})
	defer consumer.Close()

	err := tinycore.Provide(ctx, core, func(ctx context.Context) error {
		return consumer.Evaluate(ctx, func(ctx context.Context) error {
			theme, err := tinycore.UseSelector(ctx, useSelector, func(s State) string {
				return s.Settings.Theme
			})
			if err != nil {
				return err
			}

			auth, err := tinycore.UseService[AuthService](ctx, useService, "AuthService")
			if err != nil {
				return err
			}

			// use theme and auth
		})
	})

Functions:
  - tinycore.NewFactory
  - tinycore.NewRegistry
  - tinycore.NewStore
  - tinycore.NewStoreProxy
  - tinycore.Service
  - tinycore.MustService
  - tinycore.Select
  - tinycore.Watch
  - tinycore.WatchFunc
  - tinycore.WithContainer
  - tinycore.Provide
  - tinycore.FromContext
  - tinycore.NewSelectorHook
  - tinycore.NewServiceHook
  - tinycore.UseSelector
  - tinycore.UseService
  - tinycore.NewConsumer
  - tinycore.SetLogger

Factory types that can be used as services:
  - func() T
  - func() (T, error)
  - func() (T, tinycore.Cleanup, error)

Errors:
  - *tinycore.UnknownServiceError - name is not registered
  - *tinycore.ServiceInitError - factory failed, next lookup calls it again
  - *tinycore.MissingServiceError - Bind got incomplete services
  - *tinycore.NoContainerError - no ambient container in context
*/
package tinycore
