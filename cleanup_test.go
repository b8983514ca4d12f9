package tinycore_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/andriiyaremenko/tinycore"
)

var _ = Describe("Cleanup", func() {
	It("should close container when cleanup context is done", func() {
		var cleaned atomic.Bool
		ctx, cancel := context.WithCancel(context.Background())

		class := tinycore.NewFactory[State, OtherServices](tinycore.WithCleanupContext(ctx)).MustBind(
			tinycore.NewStore(initialState()),
			tinycore.ServiceMap{"Mailer": billingFactoryWithCleanup(func() { cleaned.Store(true) })},
		)

		core := class.New()
		_, err := core.GetService("Mailer")
		Expect(err).ShouldNot(HaveOccurred())

		cancel()

		Eventually(cleaned.Load).Should(BeTrue())
		Eventually(func() error {
			_, err := core.GetService("Mailer")
			return err
		}).Should(MatchError(tinycore.ErrClosed))
	})

	It("should not leak cleanup workers", func() {
		ignoreCurrent := goleak.IgnoreCurrent()
		ctx, cancel := context.WithCancel(context.Background())

		for i := 0; i < 10; i++ {
			registry := tinycore.NewRegistry(tinycore.WithCleanupContext(ctx))
			Expect(registry.Register("billing", billingFactoryWithCleanup(func() {}))).To(Succeed())
			_, _ = registry.Get("billing")

			if i%2 == 0 {
				Expect(registry.Close()).To(Succeed())
			}
		}

		cancel()

		Eventually(func() error {
			return goleak.Find(
				ignoreCurrent,
				goleak.
					IgnoreTopFunction(
						"github.com/onsi/ginkgo/v2/internal.(*Suite).runNode",
					),
				goleak.
					IgnoreAnyFunction(
						"github.com/onsi/ginkgo/v2/internal.RegisterForProgressSignal.func1",
					),
			)
		}).WithTimeout(time.Second * 5).Should(Succeed())
	})
})
