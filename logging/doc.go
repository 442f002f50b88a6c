// Package logging provides a minimal logging interface and adapters for MoA.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the engine, the fan-out executor and the model adapters use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - MoALogger with turn / component context and model call helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	m := moa.New(client, func(o *moa.Options) { o.Logger = logger })
//
// The interface is kept small so any structured logger can be plugged in.
package logging
