// Package metrics records task and dev-server metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics stay
// optional. The dev server swaps in a PrometheusRecorder and exposes it with
// HTTPHandler at /metrics:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	mux.Handle("/metrics", metrics.HTTPHandler(reg))
package metrics
