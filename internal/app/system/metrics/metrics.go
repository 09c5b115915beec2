// internal/app/system/metrics/metrics.go

// Package metrics exposes Prometheus counters for the assignment
// engine. Registration happens once at package init on the default
// registry; the /metrics endpoint is mounted in bootstrap.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MemberMoves counts finished move transactions by outcome:
	// "moved", "noop", "removed" (drop on empty space), "conflict",
	// "error".
	MemberMoves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "circlehub",
		Name:      "member_moves_total",
		Help:      "Member move transactions by outcome.",
	}, []string{"outcome"})

	// CircleOps counts circle lifecycle operations by kind:
	// "create", "rename", "delete", "set_captain", "bulk_add".
	CircleOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "circlehub",
		Name:      "circle_ops_total",
		Help:      "Circle lifecycle operations by kind.",
	}, []string{"op"})

	// RosterImports counts rows handled by CSV roster imports.
	RosterImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "circlehub",
		Name:      "roster_import_rows_total",
		Help:      "Roster import rows by result (created, duplicate, invalid).",
	}, []string{"result"})

	// InvitesSent counts invitation emails dispatched.
	InvitesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "circlehub",
		Name:      "invites_sent_total",
		Help:      "Invitation emails sent.",
	})
)
