// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the scripting host's Prometheus metrics.
type Metrics struct {
	PluginsLoaded prometheus.Gauge
	PluginReloads prometheus.Counter
	HookCalls     *prometheus.CounterVec
	ReplEvals     *prometheus.CounterVec
}

// NewMetrics creates and registers the scripting metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PluginsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "openpark_plugins_loaded",
			Help: "Number of plugins currently in the active registry",
		}),
		PluginReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "openpark_plugin_reloads_total",
			Help: "Total number of hot-reload cycles performed",
		}),
		HookCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openpark_hook_calls_total",
				Help: "Total number of hook dispatches by hook name",
			},
			[]string{"hook"},
		),
		ReplEvals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "openpark_repl_evals_total",
				Help: "Total number of REPL evaluations by status",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(m.PluginsLoaded)
	reg.MustRegister(m.PluginReloads)
	reg.MustRegister(m.HookCalls)
	reg.MustRegister(m.ReplEvals)

	return m
}
