// Package client talks to the infosec auth server over gRPC.
//
// GRPCClient keeps the current token pair in memory, attaches the access
// token to every call, transparently refreshes an expired access token once
// and maps gRPC status codes to the sentinel errors in this package
// (ErrUnavailable, ErrUnauthorized, ErrForbidden, ErrAlreadyExists,
// ErrInvalidInput), which callers match with errors.Is.
//
// GRPCClient is safe for concurrent use.
package client
