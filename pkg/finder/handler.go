package finder

import "context"

// Handler is invoked once per item during a dispatch.
// The returned status is reported but never interpreted by default.
// A returned error stops the traversal and is handed back to the caller unchanged.
type Handler interface {
	Handle(ctx context.Context, item string) (int, error)
}

// HandlerFunc adapts a function to the Handler interface.
// Closures capture whatever state they need, so no separate user-data value is required.
type HandlerFunc func(ctx context.Context, item string) (int, error)

// Handle implements Handler
func (f HandlerFunc) Handle(ctx context.Context, item string) (int, error) {
	return f(ctx, item)
}

// UserDataFunc is the callback shape that takes an explicit user-data value alongside the item
type UserDataFunc[T any] func(item string, userData T) int

// WithUserData binds userData to fn. The value is passed through unchanged on every call.
func WithUserData[T any](fn UserDataFunc[T], userData T) Handler {
	if fn == nil {
		return nil
	}
	return HandlerFunc(func(_ context.Context, item string) (int, error) {
		return fn(item, userData), nil
	})
}
