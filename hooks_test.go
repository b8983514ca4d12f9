package tinycore_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/andriiyaremenko/tinycore"
)

var (
	useSelector = tinycore.NewSelectorHook[State]()
	useService  = tinycore.NewServiceHook[Services]()
)

func selectTheme(ctx context.Context) (string, error) {
	return tinycore.UseSelector(ctx, useSelector, func(s State) string { return s.Settings.Theme })
}

func setTheme(store *tinycore.Atom[State], theme string) {
	store.Update(func(s State) State {
		s.Settings.Theme = theme
		return s
	})
}

var _ = Describe("Hooks", func() {
	var (
		ctx   context.Context
		store *tinycore.Atom[State]
		core  *tinycore.Container[State, Services]
	)

	BeforeEach(func() {
		store = tinycore.NewStore(initialState())
		core = tinycore.NewFactory[State, Services]().MustBind(store, tinycore.ServiceMap{
			"AuthService": newAuthService,
			"billing":     &Billing{Currency: "EUR"},
		}).New()

		DeferCleanup(core.Close)

		ctx = tinycore.WithContainer(context.Background(), core)
	})

	Describe("selector hook", func() {
		It("should select from ambient container state", func() {
			theme, err := selectTheme(ctx)

			Expect(err).ShouldNot(HaveOccurred())
			Expect(theme).To(Equal("dark"))
		})

		It("should return untyped value from hook itself", func() {
			theme, err := useSelector(ctx, func(s State) any { return s.Settings.Theme })

			Expect(err).ShouldNot(HaveOccurred())
			Expect(theme).To(Equal("dark"))
		})

		It("should fail with NoContainerError outside of provider scope", func() {
			_, err := selectTheme(context.Background())

			Expect(err).Should(BeAssignableToTypeOf(new(tinycore.NoContainerError)))
		})

		It("should fail with ContainerTypeError for container of other state", func() {
			other := tinycore.NewFactory[Settings, OtherServices]().MustBind(
				tinycore.NewStore(Settings{}),
				tinycore.ServiceMap{"Mailer": &Billing{}},
			).New()

			_, err := selectTheme(tinycore.WithContainer(ctx, other))

			Expect(err).Should(BeAssignableToTypeOf(new(tinycore.ContainerTypeError)))
		})

		It("should notify consumer exactly once per mutation of selected slice", func() {
			notifications := 0
			consumer := tinycore.NewConsumer(func() { notifications++ })
			DeferCleanup(consumer.Close)

			var theme string
			render := func(ctx context.Context) error {
				var err error
				theme, err = selectTheme(ctx)

				return err
			}

			Expect(consumer.Evaluate(ctx, render)).To(Succeed())
			Expect(theme).To(Equal("dark"))

			setTheme(store, "light")

			Expect(notifications).To(Equal(1))
			Expect(consumer.Evaluate(ctx, render)).To(Succeed())
			Expect(theme).To(Equal("light"))
		})

		It("should not notify consumer about unrelated mutations", func() {
			notifications := 0
			consumer := tinycore.NewConsumer(func() { notifications++ })
			DeferCleanup(consumer.Close)

			Expect(consumer.Evaluate(ctx, func(ctx context.Context) error {
				_, err := selectTheme(ctx)
				return err
			})).To(Succeed())

			store.Update(func(s State) State {
				s.Counter++
				s.Settings.Language = "uk"
				return s
			})

			Expect(notifications).To(BeZero())
		})

		It("should not notify consumer selecting struct with nested slice about unrelated mutations", func() {
			notifications := 0
			consumer := tinycore.NewConsumer(func() { notifications++ })
			DeferCleanup(consumer.Close)

			var profile Profile
			Expect(consumer.Evaluate(ctx, func(ctx context.Context) (err error) {
				profile, err = tinycore.UseSelector(ctx, useSelector, func(s State) Profile { return s.Profile })
				return err
			})).To(Succeed())
			Expect(profile.Name).To(Equal("Bob"))

			store.Update(func(s State) State {
				s.Counter++
				return s
			})

			Expect(notifications).To(BeZero())

			store.Update(func(s State) State {
				s.Profile.Preferences.Tags = append([]string{}, s.Profile.Preferences.Tags...)
				return s
			})

			Expect(notifications).To(Equal(1))
		})

		It("should notify once when several selectors changed", func() {
			notifications := 0
			consumer := tinycore.NewConsumer(func() { notifications++ })
			DeferCleanup(consumer.Close)

			Expect(consumer.Evaluate(ctx, func(ctx context.Context) error {
				for i := 0; i < 3; i++ {
					if _, err := selectTheme(ctx); err != nil {
						return err
					}
				}

				_, err := tinycore.UseSelector(ctx, useSelector, func(s State) Settings { return s.Settings })
				return err
			})).To(Succeed())

			setTheme(store, "light")

			Expect(notifications).To(Equal(1))
		})

		It("should not add subscriptions on every evaluation", func() {
			consumer := tinycore.NewConsumer(func() {})
			DeferCleanup(consumer.Close)

			for i := 0; i < 5; i++ {
				Expect(consumer.Evaluate(ctx, func(ctx context.Context) error {
					_, err := selectTheme(ctx)
					if err != nil {
						return err
					}

					_, err = selectTheme(ctx)
					return err
				})).To(Succeed())
			}

			Expect(core.Store().Subscribers()).To(Equal(1))
		})

		It("should hold one subscription for containers sharing a store", func() {
			notifications := 0
			consumer := tinycore.NewConsumer(func() { notifications++ })
			DeferCleanup(consumer.Close)

			class := tinycore.NewFactory[State, OtherServices]().MustBind(store, tinycore.ServiceMap{"Mailer": &Billing{}})
			core1, core2 := class.New(), class.New()

			Expect(consumer.Evaluate(ctx, func(ctx context.Context) error {
				if _, err := selectTheme(tinycore.WithContainer(ctx, core1)); err != nil {
					return err
				}

				_, err := selectTheme(tinycore.WithContainer(ctx, core2))
				return err
			})).To(Succeed())

			setTheme(store, "light")

			Expect(notifications).To(Equal(1))
		})

		It("should release subscription when selector is no longer used", func() {
			notifications := 0
			consumer := tinycore.NewConsumer(func() { notifications++ })
			DeferCleanup(consumer.Close)

			Expect(consumer.Evaluate(ctx, func(ctx context.Context) error {
				_, err := selectTheme(ctx)
				return err
			})).To(Succeed())
			Expect(core.Store().Subscribers()).To(Equal(1))

			Expect(consumer.Evaluate(ctx, func(context.Context) error { return nil })).To(Succeed())
			Expect(core.Store().Subscribers()).To(BeZero())

			setTheme(store, "light")

			Expect(notifications).To(BeZero())
		})

		It("should release subscriptions on Close", func() {
			notifications := 0
			consumer := tinycore.NewConsumer(func() { notifications++ })

			Expect(consumer.Evaluate(ctx, func(ctx context.Context) error {
				_, err := selectTheme(ctx)
				return err
			})).To(Succeed())

			consumer.Close()
			consumer.Close()

			setTheme(store, "light")

			Expect(notifications).To(BeZero())
			Expect(core.Store().Subscribers()).To(BeZero())
			Expect(consumer.Evaluate(ctx, func(context.Context) error { return nil })).
				To(MatchError(tinycore.ErrConsumerClosed))
		})

		It("should refuse nested evaluation of the same consumer", func() {
			consumer := tinycore.NewConsumer(func() {})
			DeferCleanup(consumer.Close)

			err := consumer.Evaluate(ctx, func(ctx context.Context) error {
				return consumer.Evaluate(ctx, func(context.Context) error { return nil })
			})

			Expect(err).To(MatchError(tinycore.ErrNestedEvaluation))
		})

		It("should allow re-evaluation from change notification", func() {
			var (
				consumer *tinycore.Consumer
				themes   []string
			)

			render := func(ctx context.Context) error {
				theme, err := selectTheme(ctx)
				themes = append(themes, theme)

				return err
			}

			consumer = tinycore.NewConsumer(func() {
				Expect(consumer.Evaluate(ctx, render)).To(Succeed())
			})
			DeferCleanup(consumer.Close)

			Expect(consumer.Evaluate(ctx, render)).To(Succeed())

			setTheme(store, "light")
			setTheme(store, "light")

			Expect(themes).To(Equal([]string{"dark", "light"}))
		})

		It("should not track selectors called outside of evaluation", func() {
			_, err := selectTheme(ctx)

			Expect(err).ShouldNot(HaveOccurred())
			Expect(core.Store().Subscribers()).To(BeZero())
		})
	})

	Describe("service hook", func() {
		It("should resolve service of ambient container", func() {
			auth, err := tinycore.UseService[AuthService](ctx, useService, "AuthService")

			Expect(err).ShouldNot(HaveOccurred())
			Expect(auth).To(BeIdenticalTo(tinycore.MustService[AuthService](core, "AuthService")))
		})

		It("should return same service on repeated calls", func() {
			billing1, err := useService(ctx, "billing")
			Expect(err).ShouldNot(HaveOccurred())

			billing2, err := useService(ctx, "billing")
			Expect(err).ShouldNot(HaveOccurred())

			Expect(billing1).To(BeIdenticalTo(billing2))
		})

		It("should refuse names not declared in service map", func() {
			_, err := useService(ctx, "Billing")

			var unknownErr *tinycore.UnknownServiceError
			Expect(errors.As(err, &unknownErr)).To(BeTrue())
			Expect(unknownErr.Known).To(Equal([]string{"AuthService", "billing"}))
		})

		It("should fail with NoContainerError outside of provider scope", func() {
			_, err := useService(context.Background(), "AuthService")

			Expect(err).Should(BeAssignableToTypeOf(new(tinycore.NoContainerError)))
		})

		It("should return ServiceTypeError for wrong type", func() {
			_, err := tinycore.UseService[AuthService](ctx, useService, "billing")

			Expect(err).Should(BeAssignableToTypeOf(new(tinycore.ServiceTypeError)))
		})
	})
})
