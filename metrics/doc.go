// Package metrics records turn level and model call level measurements.
//
// The engine talks to the Recorder interface only. Prometheus backs it in
// production (exposed by the CLI through promhttp); NoOp is the default.
package metrics
