/*
Package metrics exposes Prometheus metrics and a health endpoint for
dockerdns.

Collectors are package-level and registered in init(); callers update them
directly:

	metrics.QueriesTotal.WithLabelValues("A", "NOERROR").Inc()

The metrics HTTP server is optional and mounted by cmd/dockerdns when
--metrics-addr is set, serving /metrics (Prometheus exposition) and /health
(JSON component health).
*/
package metrics
