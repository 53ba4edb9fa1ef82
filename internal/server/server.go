package server

import "context"

// ExecResult holds the outcome of a single remote command.
type ExecResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Server represents a remote server that can run commands.
//
// Execute returns an error only for transport-level failures (dial,
// handshake, session setup). A command that ran and exited non-zero is
// reported through ExecResult.ExitCode so callers can decide whether the
// exit status is a failure or just information.
type Server interface {
	// ID returns a unique identifier for the server.
	ID() string
	// Address returns the connection address (IP or hostname).
	Address() string
	// Execute runs a command on the server.
	Execute(ctx context.Context, command string) (ExecResult, error)
}
