// Package session houses concrete implementations of the core.SessionStore.
// The interface itself (and the Session struct) live in the core package so
// the engine never depends on concrete storage.
//
// Two backends are provided:
//   - InMemoryStore keeps cloned snapshots in a map (tests, one-shot CLI runs)
//   - FileStore persists one JSON document per user at
//     <data dir>/<user>/session_data.json
//
// Both return a fresh default session for unknown users.
package session
