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

package labeler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"
	"sigs.k8s.io/controller-runtime/pkg/manager"

	"github.com/deckhouse/sentinel-role-labeler/internal/config"
	"github.com/deckhouse/sentinel-role-labeler/internal/ctlerrors"
	"github.com/deckhouse/sentinel-role-labeler/internal/logger"
)

type Cycler interface {
	Cycle(ctx context.Context) (CycleResult, error)
}

// Loop runs cycles one after another until its context is cancelled.
type Loop struct {
	cycler   Cycler
	log      *logger.Logger
	interval time.Duration
	policy   config.ErrorPolicy
	clock    clock.Clock

	halted atomic.Bool
	cycles atomic.Int64
}

var (
	_ manager.Runnable               = (*Loop)(nil)
	_ manager.LeaderElectionRunnable = (*Loop)(nil)
)

func NewLoop(cycler Cycler, log *logger.Logger, opts *config.Options) *Loop {
	return &Loop{
		cycler:   cycler,
		log:      log,
		interval: opts.PollInterval(),
		policy:   opts.OnError,
		clock:    clock.RealClock{},
	}
}

// WithClock replaces the clock driving the pause between cycles.
func (l *Loop) WithClock(c clock.Clock) *Loop {
	l.clock = c
	return l
}

// Run returns only when ctx is done, with ctx.Err().
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("[Run] starting", "interval", l.interval.String(), "onError", string(l.policy))

	for {
		err := l.runCycle(ctx)
		if ctx.Err() != nil {
			l.log.Info("[Run] stopping")
			return ctx.Err()
		}

		if err != nil && l.policy == config.ErrorPolicyHalt {
			l.halted.Store(true)
			haltedGauge.Set(1)
			l.log.Warning("[Run] cycle failed, no further cycles will run until restart", "policy", string(l.policy))
			<-ctx.Done()
			l.log.Info("[Run] stopping")
			return ctx.Err()
		}

		l.log.Info(fmt.Sprintf("[Run] sleeping %s", l.interval))
		select {
		case <-ctx.Done():
			l.log.Info("[Run] stopping")
			return ctx.Err()
		case <-l.clock.After(l.interval):
		}
	}
}

// Start implements manager.Runnable. Cancellation is a normal stop.
func (l *Loop) Start(ctx context.Context) error {
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// NeedLeaderElection keeps a single writer when several replicas run.
func (l *Loop) NeedLeaderElection() bool {
	return true
}

// Halted reports whether the halt policy stopped the loop.
func (l *Loop) Halted() bool {
	return l.halted.Load()
}

// Cycles returns the number of cycles started so far.
func (l *Loop) Cycles() int64 {
	return l.cycles.Load()
}

// ReadyzCheck fails once the loop has halted.
func (l *Loop) ReadyzCheck(_ *http.Request) error {
	if l.Halted() {
		return errors.New("labeling loop halted after a failed cycle")
	}
	return nil
}

func (l *Loop) runCycle(ctx context.Context) (err error) {
	log := l.log.WithValues("cycle", l.cycles.Add(1))
	start := l.clock.Now()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("cycle panicked: %v", p)
		}

		cycleDuration.Observe(l.clock.Since(start).Seconds())

		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error(err, "[runCycle] cycle failed", "kind", ctlerrors.Kind(err))
			cyclesTotal.WithLabelValues(resultError).Inc()
			cycleErrorsTotal.WithLabelValues(ctlerrors.Kind(err)).Inc()
		}
	}()

	res, err := l.cycler.Cycle(ctx)
	if err != nil {
		return err
	}

	lastSuccessTimestamp.Set(float64(l.clock.Now().Unix()))
	if len(res.Members) == 0 {
		cyclesTotal.WithLabelValues(resultNoop).Inc()
		return nil
	}
	cyclesTotal.WithLabelValues(resultSuccess).Inc()

	verb := "applied"
	if res.DryRun {
		verb = "would apply"
	}
	log.Info(fmt.Sprintf("[runCycle] cycle finished, labels %s", verb),
		"master", res.Master, "labels", res.Applied, "skipped", res.Skipped)

	return nil
}
