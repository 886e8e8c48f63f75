// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var journalWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "picam_journal_writes_total",
	Help: "Capture journal inserts by outcome",
}, []string{"outcome"}) // outcome=success|failure

// IncJournalWrite records a capture journal insert.
func IncJournalWrite(ok bool) {
	if ok {
		journalWritesTotal.WithLabelValues("success").Inc()
		return
	}
	journalWritesTotal.WithLabelValues("failure").Inc()
}
