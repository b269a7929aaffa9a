// Package observability exposes sampling runs to Prometheus and OpenTelemetry.
//
// Metrics are fed through domain.LifecycleHooks, so they can be combined with
// any other hooks (logging, progress) via domain.Combine.
package observability
