// Package metrics defines and registers all custom Prometheus metrics for the
// order desk API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics register themselves with the default Prometheus registry on package
// initialisation (promauto), so importing the package is enough.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "orderdesk"

// ── Order metrics ─────────────────────────────────────────────────────────────

// OrdersCreatedTotal counts newly placed orders.
// Label:
//   - service_id: catalog service (e.g. "logo", "video")
var OrdersCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Total number of orders placed, by service.",
	},
	[]string{"service_id"},
)

// OrderTransitionsTotal counts committed lifecycle operations.
// Label:
//   - operation: the audit action applied (e.g. "ORDER_ASSIGNED", "STATUS_CHANGED")
var OrderTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Total number of lifecycle operations committed on orders.",
	},
	[]string{"operation"},
)

// OrderRejectionsTotal counts lifecycle operations refused by the engine.
// Label:
//   - reason: "forbidden", "conflict", "invalid_transition", "validation",
//     "not_found", "stale" or "other"
var OrderRejectionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_rejections_total",
		Help:      "Total number of lifecycle operations rejected, by reason.",
	},
	[]string{"reason"},
)

// PaymentDecisionsTotal counts admin payment decisions.
// Label:
//   - decision: "confirmed" or "refused"
var PaymentDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payment_decisions_total",
		Help:      "Total number of payment decisions recorded.",
	},
	[]string{"decision"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Event metrics ─────────────────────────────────────────────────────────────

// EventsDispatchedTotal counts lifecycle events handled by the dispatcher.
// Label:
//   - result: "published", "failed" or "dropped" (shard full)
var EventsDispatchedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dispatched_total",
		Help:      "Total number of lifecycle events handled by the dispatcher, by result.",
	},
	[]string{"result"},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventPublishDuration measures how long a sink takes to publish one event.
var EventPublishDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_publish_duration_seconds",
		Help:      "Duration of publishing one lifecycle event to its sink.",
		Buckets:   prometheus.DefBuckets,
	},
)
