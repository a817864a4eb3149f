// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package promobs implements the lot observer using Prometheus
// collectors. An Observer registers its collectors in a given registry
// and the Handler method exposes that registry for scraping.
//
// Collectors are labelled by vehicle class only. User ids are not used
// as labels, so the number of time series stays bounded.
package promobs

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/momeni/parklot/pkg/core/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "parklot"

// Observer reifies the lotuc.Observer interface.
type Observer struct {
	registry *prometheus.Registry

	parked       *prometheus.CounterVec
	released     *prometheus.CounterVec
	revenue      *prometheus.CounterVec
	occupied     prometheus.Gauge
	passes       prometheus.Counter
	passDuration prometheus.Histogram
	resyncs      prometheus.Counter
	resyncErrors prometheus.Counter
}

// New creates an Observer and registers its collectors in reg.
// A nil reg is replaced by a fresh registry.
func New(reg *prometheus.Registry) (*Observer, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	o := &Observer{
		registry: reg,
		parked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parked_total",
			Help:      "Number of parked vehicles.",
		}, []string{"class"}),
		released: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "released_total",
			Help:      "Number of released spots.",
		}, []string{"class"}),
		revenue: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "revenue_total",
			Help:      "Sum of the final costs of released spots.",
		}, []string{"class"}),
		occupied: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "recomputed_spots",
			Help:      "Occupied spots seen by the latest recomputation pass.",
		}),
		passes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputation_passes_total",
			Help:      "Number of applied recomputation passes.",
		}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recomputation_duration_seconds",
			Help:      "Duration of the recomputation passes.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
		resyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "Number of successful reconciliations.",
		}),
		resyncErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resync_failures_total",
			Help:      "Number of skipped reconciliations.",
		}),
	}
	for _, c := range []prometheus.Collector{
		o.parked, o.released, o.revenue, o.occupied,
		o.passes, o.passDuration, o.resyncs, o.resyncErrors,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, vc := range model.VehicleClasses {
		o.parked.WithLabelValues(vc.String())
		o.released.WithLabelValues(vc.String())
		o.revenue.WithLabelValues(vc.String())
	}
	return o, nil
}

// Handler returns an http.Handler which serves the collected metrics
// in the Prometheus exposition format.
func (o *Observer) Handler() http.Handler {
	return promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{
		Registry: o.registry,
	})
}

// Parked counts one parked vehicle of the class vehicle class.
func (o *Observer) Parked(_ uuid.UUID, class model.VehicleClass) {
	o.parked.WithLabelValues(class.String()).Inc()
}

// Released counts one released spot and adds its final cost to the
// revenue of the class vehicle class.
func (o *Observer) Released(
	_ uuid.UUID, class model.VehicleClass, cost model.Money,
) {
	o.released.WithLabelValues(class.String()).Inc()
	o.revenue.WithLabelValues(class.String()).Add(cost.InexactFloat64())
}

// Recomputed records an applied recomputation pass.
func (o *Observer) Recomputed(_ uuid.UUID, occupied int, took time.Duration) {
	o.passes.Inc()
	o.occupied.Set(float64(occupied))
	o.passDuration.Observe(took.Seconds())
}

// Resynced counts a successful reconciliation.
func (o *Observer) Resynced(uuid.UUID, int) {
	o.resyncs.Inc()
}

// ResyncFailed counts a skipped reconciliation.
func (o *Observer) ResyncFailed(uuid.UUID, error) {
	o.resyncErrors.Inc()
}
