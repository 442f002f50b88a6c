// Package core provides the foundational domain types shared by every layer of
// the MoA pipeline. It defines:
//
//   - Messages and conversations (role tagged text, system message at index 0)
//   - Generation parameters and the reference working-set rule
//   - Reference outputs collected during fan-out and the per-turn TurnResult
//   - Progress events delivered to the calling surface while a turn runs
//   - Sessions (explicit per-user state) and the SessionStore interface
//   - SharedScalar, the lock protected cell the elapsed-time timer publishes into
//
// The package keeps transport, persistence and orchestration out of scope so
// that engine, agent and model packages can depend on it without cycles.
package core
