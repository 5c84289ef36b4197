// Package server defines the start/stop contract the fx lifecycle drives.
package server

import "context"

// Server is a network listener with a managed lifetime. Start must return
// once the server accepts connections; Stop drains in-flight requests until
// ctx expires.
type Server interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() string
}
