/*
Copyright 2026 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package labeler_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/labeler"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
)

// scriptedCycler returns steps[i] on the i-th call and succeeds afterwards.
type scriptedCycler struct {
	mu    sync.Mutex
	steps []func(ctx context.Context) error
	calls int
}

func (c *scriptedCycler) Cycle(ctx context.Context) (labeler.CycleResult, error) {
	c.mu.Lock()
	i := c.calls
	c.calls++
	c.mu.Unlock()

	res := labeler.CycleResult{Members: []string{"a"}, Master: "a"}
	if i < len(c.steps) && c.steps[i] != nil {
		return res, c.steps[i](ctx)
	}
	return res, nil
}

func failWith(err error) func(context.Context) error {
	return func(context.Context) error { return err }
}

var _ = Describe("Loop", func() {
	const interval = 10 * time.Second

	var (
		opts   *config.Options
		cycler *scriptedCycler
		clk    *testingclock.FakeClock
		loop   *labeler.Loop
		cancel context.CancelFunc
		done   chan error
	)

	BeforeEach(func() {
		opts = config.NewDefaultOptions()
		opts.UpdatePeriodSec = int(interval / time.Second)
		cycler = &scriptedCycler{}
		clk = testingclock.NewFakeClock(time.Now())
	})

	JustBeforeEach(func() {
		loop = labeler.NewLoop(cycler, &logger.Logger{}, opts).WithClock(clk)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		DeferCleanup(cancel)

		done = make(chan error, 1)
		go func() {
			defer GinkgoRecover()
			done <- loop.Run(ctx)
		}()
	})

	It("waits one interval between cycles", func() {
		Eventually(loop.Cycles).Should(BeEquivalentTo(1))
		Eventually(clk.HasWaiters).Should(BeTrue())

		clk.Step(interval - time.Second)
		Consistently(loop.Cycles, 100*time.Millisecond).Should(BeEquivalentTo(1))

		clk.Step(time.Second)
		Eventually(loop.Cycles).Should(BeEquivalentTo(2))
	})

	It("returns the cancellation error when stopped while sleeping", func() {
		Eventually(clk.HasWaiters).Should(BeTrue())
		cancel()
		Eventually(done).Should(Receive(MatchError(context.Canceled)))
	})

	When("the policy is resume", func() {
		BeforeEach(func() {
			opts.OnError = config.ErrorPolicyResume
			cycler.steps = []func(context.Context) error{
				failWith(ctlerrors.ErrMasterResolutionf("asking sentinel: %w", context.DeadlineExceeded)),
			}
		})

		It("runs the next cycle after a failure", func() {
			Eventually(loop.Cycles).Should(BeEquivalentTo(1))
			Eventually(clk.HasWaiters).Should(BeTrue())
			Expect(loop.Halted()).To(BeFalse())
			Expect(loop.ReadyzCheck(nil)).To(Succeed())

			clk.Step(interval)
			Eventually(loop.Cycles).Should(BeEquivalentTo(2))
		})
	})

	When("a cycle panics", func() {
		BeforeEach(func() {
			cycler.steps = []func(context.Context) error{
				func(context.Context) error { panic("boom") },
			}
		})

		It("keeps the loop alive", func() {
			Eventually(clk.HasWaiters).Should(BeTrue())
			clk.Step(interval)
			Eventually(loop.Cycles).Should(BeEquivalentTo(2))
		})
	})

	When("the policy is halt", func() {
		BeforeEach(func() {
			opts.OnError = config.ErrorPolicyHalt
		})

		When("a cycle fails", func() {
			BeforeEach(func() {
				cycler.steps = []func(context.Context) error{
					failWith(ctlerrors.ErrApplyf("patching pod: %w", errors.New("forbidden"))),
				}
			})

			It("stops running cycles and reports not ready", func() {
				Eventually(loop.Halted).Should(BeTrue())
				Expect(loop.ReadyzCheck(nil)).NotTo(Succeed())

				clk.Step(10 * interval)
				Consistently(loop.Cycles, 100*time.Millisecond).Should(BeEquivalentTo(1))
				Expect(clk.HasWaiters()).To(BeFalse())

				cancel()
				Eventually(done).Should(Receive(MatchError(context.Canceled)))
			})
		})

		When("cycles succeed", func() {
			It("keeps going", func() {
				Eventually(clk.HasWaiters).Should(BeTrue())
				clk.Step(interval)
				Eventually(loop.Cycles).Should(BeEquivalentTo(2))
				Expect(loop.Halted()).To(BeFalse())
			})
		})

		When("the context is cancelled during a cycle", func() {
			BeforeEach(func() {
				cycler.steps = []func(context.Context) error{
					func(ctx context.Context) error {
						<-ctx.Done()
						return ctx.Err()
					},
				}
			})

			It("stops without halting", func() {
				Eventually(loop.Cycles).Should(BeEquivalentTo(1))
				cancel()
				Eventually(done).Should(Receive(MatchError(context.Canceled)))
				Expect(loop.Halted()).To(BeFalse())
			})
		})
	})
})

var _ = Describe("Loop as a manager runnable", func() {
	It("treats cancellation as a clean stop", func() {
		loop := labeler.NewLoop(&scriptedCycler{}, &logger.Logger{}, config.NewDefaultOptions()).
			WithClock(testingclock.NewFakeClock(time.Now()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(loop.Start(ctx)).To(Succeed())
		Expect(loop.NeedLeaderElection()).To(BeTrue())
	})
})
