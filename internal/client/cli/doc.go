// Package cli provides the interactive infosec command-line client.
//
// It wires configuration and the gRPC auth client into a small REPL:
// signup, login, token refresh, availability checks and "me". The REPL is
// started via App.Run, which blocks until the user exits.
package cli
