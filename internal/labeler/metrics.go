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
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

const metricsSubsystem = "sentinel_role_labeler"

const (
	resultSuccess = "success"
	resultNoop    = "noop"
	resultError   = "error"
)

var (
	cyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "cycles_total",
			Help:      "Reconciliation cycles by result (success, noop, error).",
		},
		[]string{"result"},
	)

	cycleErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "cycle_errors_total",
			Help:      "Failed cycles by error kind.",
		},
		[]string{"kind"},
	)

	labelsAppliedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: metricsSubsystem,
			Name:      "labels_applied_total",
			Help:      "Role label patches sent to the API server by role.",
		},
		[]string{"role"},
	)

	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Subsystem: metricsSubsystem,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one reconciliation cycle.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	lastSuccessTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: metricsSubsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last cycle that finished without error.",
		},
	)

	haltedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Subsystem: metricsSubsystem,
			Name:      "halted",
			Help:      "1 when the loop stopped after a failure under the halt policy.",
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		cyclesTotal,
		cycleErrorsTotal,
		labelsAppliedTotal,
		cycleDuration,
		lastSuccessTimestamp,
		haltedGauge,
	)
}
