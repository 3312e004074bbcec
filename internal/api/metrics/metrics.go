// Package metrics defines and registers all custom Prometheus metrics for the
// KYC gateway. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package init
// through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kyc"

// ── Vendor metrics ────────────────────────────────────────────────────────────

// VendorRequestsTotal counts finished vendor operations (after retries).
// Labels:
//   - operation: "initialize", "list_documents", "download", "verify_pan"
//   - outcome: "success", "timeout", "rejected", "error"
var VendorRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_requests_total",
		Help:      "Total number of vendor operations, by outcome.",
	},
	[]string{"operation", "outcome"},
)

// VendorAttemptsTotal counts individual HTTP attempts, including retries.
var VendorAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "vendor_attempts_total",
		Help:      "Total number of HTTP attempts made against the vendor API.",
	},
	[]string{"operation"},
)

// VendorRequestDuration measures one vendor operation end-to-end, retries and backoff included.
var VendorRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "vendor_request_duration_seconds",
		Help:      "Duration of vendor operations including retries.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 20, 40, 80},
	},
	[]string{"operation"},
)

// ── Verification metrics ──────────────────────────────────────────────────────

// VerificationsTotal counts verification attempts by result.
// Label:
//   - result: "completed", "missing_documents", "download_failed", "recorded", "duplicate"
var VerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "verifications_total",
		Help:      "Total number of verification outcomes.",
	},
	[]string{"result"},
)

// VerificationJobsQueueDepth tracks jobs waiting in each dispatcher worker channel.
var VerificationJobsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "verification_jobs_queue_depth",
		Help:      "Current number of verification jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Account metrics ───────────────────────────────────────────────────────────

// SignupsTotal counts created accounts.
var SignupsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created.",
	},
)
