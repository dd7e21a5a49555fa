// Package metrics provides build observability for tkdocs.
//
// Components receive a Recorder through dependency injection. NoopRecorder is the
// default and does nothing, so callers never nil-check:
//
//	driver := pipeline.New(deps) // uses metrics.NoopRecorder{}
//
// To collect metrics, swap in a PrometheusRecorder bound to a registry and, for
// one-shot CLI runs, dump the registry to a node_exporter textfile when the run ends:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	...
//	_ = metrics.WriteTextfile(path, reg)
package metrics
