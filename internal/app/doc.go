// Package app provides the application service layer.
//
// Orchestrates the match and commentary use cases: validation of state
// transitions, persistence through domain repositories, and publishing to
// connected clients once a write has succeeded. Depends on domain interfaces,
// not concrete implementations.
package app
