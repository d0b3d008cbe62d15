// Package metrics defines and registers all custom Prometheus metrics for the
// Sinergy web front. It is the single source of truth for metric names,
// labels, and help strings.
//
// The vectors register with the default Prometheus registry on import and are
// exposed by the /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sinergy"

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts session gate decisions.
// Label:
//   - outcome: e.g. "granted", "granted_admin", "denied", "login_redirect", "forced_logout"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of session gate decisions, by outcome.",
	},
	[]string{"outcome"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok", "rejected" or "error"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// ── Backend metrics ───────────────────────────────────────────────────────────

// BackendRequestsTotal counts calls to the Sinergy REST API.
// Labels:
//   - op: logical operation (e.g. "login", "permissions", "heartbeat")
//   - result: "ok", "network", "status" or "decode"
var BackendRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Total number of Sinergy API requests, by operation and result.",
	},
	[]string{"op", "result"},
)

// BackendRequestDuration measures Sinergy API round trips.
// Label:
//   - op: logical operation
var BackendRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Duration of Sinergy API requests.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"op"},
)

// ── Chat proxy metrics ────────────────────────────────────────────────────────

// ChatProxyRequestsTotal counts requests to the same-origin chat endpoints.
// Labels:
//   - op: "heartbeat", "roster", "messages" or "send"
//   - status: HTTP status returned to the browser
var ChatProxyRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "chat_proxy_requests_total",
		Help:      "Total number of chat proxy requests, by operation and status.",
	},
	[]string{"op", "status"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditDroppedTotal counts access audit entries dropped because the write
// queue was full.
var AuditDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_dropped_total",
		Help:      "Total number of access audit entries dropped on a full queue.",
	},
)
