package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sarchlab/nodetopo/sim"
	"github.com/sarchlab/nodetopo/sim/hooking"
)

// MetricsHook counts what a registry creates and exposes the counts as
// Prometheus metrics.
type MetricsHook struct {
	components      *prometheus.CounterVec
	links           prometheus.Counter
	linkEnds        prometheus.Counter
	uncuttableLinks prometheus.Counter
}

// NewMetricsHook creates the counters and registers them.
func NewMetricsHook(reg prometheus.Registerer) *MetricsHook {
	h := &MetricsHook{
		components: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nodetopo",
				Name:      "components_created_total",
				Help:      "Components and subsystems created, by type tag.",
			},
			[]string{"type", "role"},
		),
		links: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nodetopo",
			Name:      "links_created_total",
			Help:      "Links created.",
		}),
		linkEnds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nodetopo",
			Name:      "link_ends_attached_total",
			Help:      "Link ends attached to component ports.",
		}),
		uncuttableLinks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nodetopo",
			Name:      "uncuttable_links_total",
			Help:      "Links marked as not partitionable.",
		}),
	}

	reg.MustRegister(h.components, h.links, h.linkEnds, h.uncuttableLinks)

	return h
}

// Func updates the counters.
func (h *MetricsHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case sim.HookPosComponentCreated, sim.HookPosSubsystemAttached:
		tag := ctx.Item.(sim.Component).TypeTag()
		h.components.WithLabelValues(string(tag), tag.Role().String()).Inc()
	case sim.HookPosLinkCreated:
		h.links.Inc()
	case sim.HookPosLinkAttached:
		h.linkEnds.Inc()
	case sim.HookPosLinkMarkedUncuttable:
		h.uncuttableLinks.Inc()
	}
}
