// ABOUTME: Prometheus counters for import, export and bulk operations
// ABOUTME: Registered with the default registry and served by the web UI
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexuscrm",
		Subsystem: "import",
		Name:      "rows_total",
		Help:      "CSV rows processed by the import pipeline, broken down by outcome.",
	}, []string{"outcome"})

	importBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexuscrm",
		Subsystem: "import",
		Name:      "batches_total",
		Help:      "Import batches by result.",
	}, []string{"result"})

	exports = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexuscrm",
		Subsystem: "export",
		Name:      "files_total",
		Help:      "Generated export files by kind.",
	}, []string{"kind"})

	bulkActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nexuscrm",
		Subsystem: "bulk",
		Name:      "actions_total",
		Help:      "Bulk actions by action and result.",
	}, []string{"action", "result"})
)

// Import outcomes.
const (
	OutcomeImported = "imported"
	OutcomeUpdated  = "updated"
	OutcomeSkipped  = "skipped"
	OutcomeErrored  = "errored"
	OutcomeDropped  = "dropped"
)

func RecordImportRows(outcome string, n int) {
	if n <= 0 {
		return
	}
	importRows.WithLabelValues(outcome).Add(float64(n))
}

func RecordImportBatch(ok bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	importBatches.WithLabelValues(result).Inc()
}

func RecordExport(kind string) {
	exports.WithLabelValues(kind).Inc()
}

func RecordBulkAction(action, result string) {
	bulkActions.WithLabelValues(action, result).Inc()
}
