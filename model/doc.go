// Package model defines the provider-agnostic completion client used by the
// MoA pipeline and small composable helpers around it.
//
// Core goals:
//   - Expose exactly the two calls the pipeline needs: a synchronous Complete
//     for reference models and a streaming CompleteStream for the aggregator
//   - Keep request shapes minimal and transport independent
//   - Route mixed-provider model sets (Router) and throttle calls (RateLimited)
//   - Facilitate lightweight mocking for tests (MockClient)
//
// Providers (OpenAI compatible endpoints such as Together AI, Anthropic,
// Gemini) implement Client in sub-packages so higher layers stay decoupled
// from vendor SDKs.
package model
