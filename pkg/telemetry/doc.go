// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for democrat stores.
//
// Both are optional. A store without WithMetrics records nothing; a store
// without an explicit tracer uses the global OpenTelemetry provider.
//
//	reg := prometheus.NewRegistry()
//	metrics := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//
//	store := democrat.CreateStore[int](App.Create(nil),
//	    democrat.WithMetrics(metrics),
//	    democrat.WithName("app"),
//	)
package telemetry
