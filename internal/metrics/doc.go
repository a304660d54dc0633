// Package metrics records build pipeline metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check:
//
//	orch := build.NewOrchestrator(compiler, bundler).WithRecorder(metrics.NoopRecorder{})
//
// The CLI swaps in a PrometheusRecorder when --metrics-file is given and
// writes the registry to that file in the node_exporter textfile format once
// the command finishes. A one-shot CLI has no scrape endpoint to serve.
package metrics
