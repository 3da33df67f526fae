package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "library"

var (
	BorrowingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrowings_created_total",
		Help:      "Borrowings created.",
	})
	BorrowingsReturned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrowings_returned_total",
		Help:      "Borrowings returned.",
	})
	BorrowingRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "borrowing_rejected_total",
		Help:      "Borrowing operations rejected, by operation and reason.",
	}, []string{"op", "reason"})
	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_failed_total",
		Help:      "Notification events the sink could not deliver.",
	}, []string{"kind"})
	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_recorded_total",
		Help:      "Payment ledger entries recorded from borrowing events.",
	}, []string{"type"})
	OverdueFound = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "overdue_borrowings",
		Help:      "Active borrowings due by tomorrow at the last overdue scan.",
	})
)
