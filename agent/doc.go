// Package agent contains the three working stages of a Mixture-of-Agents turn:
//
//  1. FanOut – queries every reference model concurrently (one goroutine per
//     model) and collects their outputs; RunLayers repeats this for multiple
//     refinement rounds
//  2. PromptBuilder – injects the collected reference outputs into the
//     conversation for the aggregator (and for later reference rounds)
//  3. Aggregator – streams the aggregator model's synthesis fragment by
//     fragment and assembles the final text
//
// Design principles:
//   - No hidden global state – every stage receives its inputs explicitly
//   - Context first – every blocking call honours cancellation and optional
//     per-call timeouts
//   - Observability – hooks for per-model completion and per-fragment
//     progress plus structured logging of every model call
//
// Turn orchestration (timer, state machine, result assembly) lives in the
// engine package.
package agent
