// Package metrics defines and registers the Prometheus metrics of the board
// client control plane. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default registry on package initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "board_client"

// ── Request metrics ───────────────────────────────────────────────────────────

// RequestsTotal counts requests sent through the interceptor.
// Label:
//   - outcome: "ok", "api_error", "suspended", "network_error", "canceled"
var RequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Total number of remote API requests, by outcome.",
	},
	[]string{"outcome"},
)

// ForcedLogoutsTotal counts forced logouts actually performed. Responses that
// hit an already-held latch are counted under RequestsTotal only.
var ForcedLogoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "forced_logouts_total",
		Help:      "Total number of sessions torn down after a suspension signal.",
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "invalid_credentials", "suspended_temporary", "suspended_permanent", "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── View dedup metrics ────────────────────────────────────────────────────────

// ViewDedupTotal counts view dedup decisions.
// Label:
//   - result: "count" (new view, submitted) or "suppressed" (inside the window)
var ViewDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "view_dedup_total",
		Help:      "Total number of view dedup decisions, by result.",
	},
	[]string{"result"},
)

// ── Moderation metrics ────────────────────────────────────────────────────────

// ModerationActionsTotal counts moderation calls.
// Labels:
//   - kind: SUSPEND, UNSUSPEND, CHANGE_ROLE, DELETE_CONTENT, DELETE_ACCOUNT
//   - result: "ok", "unauthorized", "invalid", "declined", "failed"
var ModerationActionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "moderation_actions_total",
		Help:      "Total number of moderation actions, by kind and result.",
	},
	[]string{"kind", "result"},
)

// ── Stand-in server metrics ───────────────────────────────────────────────────

// ViewsAppliedTotal counts view increments applied by the dispatcher.
// Label:
//   - result: "ok" or "error"
var ViewsAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "views_applied_total",
		Help:      "Total number of view increments applied by the stand-in server.",
	},
	[]string{"result"},
)

// ViewQueueDepth tracks the increments waiting in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ViewQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "view_queue_depth",
		Help:      "Current number of view increments pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ViewApplyDuration measures how long applying one increment takes.
var ViewApplyDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "view_apply_duration_seconds",
		Help:      "Duration of a view increment from dequeue to persistence.",
		Buckets:   prometheus.DefBuckets,
	},
)
