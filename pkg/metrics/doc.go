/*
Package metrics records Prometheus metrics for a resource-status invocation.

resource-status is a short-lived command, so metrics are not served over HTTP.
Each run creates its own registry, records what it did, and can write the
result to a file picked up by the node_exporter textfile collector:

	┌──────────── resource-status run ────────────┐
	│                                               │
	│  load snapshot ──► RecordSnapshot             │
	│  answer query  ──► RecordQuery                │
	│                                               │
	│  WriteTextfile("/var/lib/node_exporter/       │
	│                 textfile/resource_status.prom")│
	└───────────────────────────────────────────────┘

# Metrics

	resource_status_queries_total{verb,result}      counter
	resource_status_query_duration_seconds{verb}    histogram
	resource_status_snapshot_resources{kind}        gauge
	resource_status_snapshot_nodes                  gauge
	resource_status_snapshot_load_seconds           histogram

The result label is "true", "false" or "error", mirroring the exit code of
the query.

# Usage

	m := metrics.New()

	timer := metrics.NewTimer()
	snap, err := source.Snapshot(ctx)
	m.RecordSnapshot(snap, timer)

	timer = metrics.NewTimer()
	ok, err := facade.IsState(key, query.StateStarted, policy)
	m.RecordQuery("is-state", "true", timer)

	_ = m.WriteTextfile(path)

WriteTextfile writes to a temporary file and renames it, so the collector
never sees a partial file.
*/
package metrics
