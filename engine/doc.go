// Package engine implements the turn controller of the Mixture-of-Agents
// pipeline.
//
// The Engine drives one turn from user prompt to assistant answer and owns
// every resource the turn creates: the elapsed-time timer, the reference
// fan-out goroutines and the aggregator stream.
//
// # Turn Lifecycle
//
//	Idle → TimerStarted → FanOutInFlight → AggregationInFlight → Completed
//	                                                            ↘ Failed
//
//  1. Validate generation parameters and compute the reference working set
//  2. Append the user message to the session
//  3. Start the timer (elapsed events at Config.TimerInterval)
//  4. Fan out to every reference model, once per configured round
//  5. Inject the references into the system message and stream the
//     aggregator's synthesis (fragment events)
//  6. Stop and join the timer, append the assistant message, save the session
//
// Any failure on the way (invalid parameters, a reference call, the
// aggregator stream, cancellation) ends the turn in Failed; the session keeps
// the user message and receives no assistant message. The engine never panics
// on collaborator failures.
//
// # Usage Patterns
//
// Synchronous execution with a progress callback:
//
//	eng := engine.New(client, func(o *engine.Options) {
//	    o.Config.ReferenceTimeout = time.Minute
//	    o.Logger = logger
//	})
//	res := eng.RunTurn(ctx, sess, "What is MoA?", params, func(ev core.Event) {
//	    fmt.Println(ev.Notice())
//	})
//	if !res.OK() {
//	    return res.Err
//	}
//
// Streaming execution:
//
//	turnID, events, result := eng.Invoke(ctx, sess, "What is MoA?", params)
//	_ = turnID // use for StopTurn
//	for ev := range events {
//	    handleEvent(ev)
//	}
//	res := <-result
//
// # Concurrency Model
//
//   - One goroutine per reference model plus one timer goroutine per turn
//   - The aggregation runs on the goroutine executing the turn
//   - Progress callbacks may run concurrently and never after the turn returned
//   - Turns are bounded by Config.MaxConcurrentTurns and individually
//     cancellable through StopTurn
//
// # Extensibility
//
// Callbacks (before_turn, after_round, before_aggregation, after_turn,
// on_error) hook into the lifecycle; metrics and logging are pluggable
// through Options.
package engine
