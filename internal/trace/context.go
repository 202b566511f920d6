package trace

import "context"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the given request id.
//
// The request id is surfaced by [Begin]/[Op.End] in the "request_id" log
// attribute so that a save or restore driven by one external call can be
// correlated across every log line it produces.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, if any.
func RequestIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}
