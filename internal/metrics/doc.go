// Package metrics defines the Prometheus collectors exported by the
// photovault server: HTTP, catalog, and import pipeline instrumentation.
package metrics
