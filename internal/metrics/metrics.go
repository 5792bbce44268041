// Package metrics exposes Prometheus instrumentation for the daemon.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// CommandsSent counts dispatched bulb commands per group.
	CommandsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabletopd_commands_sent_total",
			Help: "Total number of bulb commands dispatched, per group.",
		},
		[]string{"group"},
	)

	// DispatchFailures counts failed bulb commands per group.
	DispatchFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tabletopd_dispatch_failures_total",
			Help: "Total number of bulb commands that failed, per group.",
		},
		[]string{"group"},
	)

	// AnimationPasses counts completed animation passes.
	AnimationPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tabletopd_animation_passes_total",
			Help: "Total number of animation passes started.",
		},
	)

	// EngineRunning reports whether the animation loop is active.
	EngineRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tabletopd_engine_running",
			Help: "1 while the animation loop is running, 0 otherwise.",
		},
	)
)

func init() {
	prometheus.MustRegister(CommandsSent, DispatchFailures, AnimationPasses, EngineRunning)
}
