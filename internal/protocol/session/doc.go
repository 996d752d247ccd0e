// Package session owns the client side of one controller command connection.
//
// Ownership boundary:
// - dialing and closing the TCP stream
// - command id allocation
// - request framing and response demultiplexing by command id
// - retry/backoff primitives for callers that reopen sessions
//
// A Session carries no locks on its request path and is meant to be driven
// by one goroutine. Close may be called from any goroutine to unblock a
// pending receive.
package session
