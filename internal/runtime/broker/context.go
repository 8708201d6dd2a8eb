package broker

import "context"

type brokerContextKey struct{}

// InitThreadLocals returns a context carrying b as the current broker.
// Goroutines have no thread-local storage, so broker affinity travels in the
// context instead: every call chain that looks up the current broker must
// start from a context derived from this one.
func (b *MessageBroker) InitThreadLocals(ctx context.Context) context.Context {
	return NewContext(ctx, b)
}

// NewContext returns a copy of ctx carrying b.
func NewContext(ctx context.Context, b *MessageBroker) context.Context {
	return context.WithValue(ctx, brokerContextKey{}, b)
}

// FromContext returns the broker established by InitThreadLocals.
func FromContext(ctx context.Context) (*MessageBroker, bool) {
	if ctx == nil {
		return nil, false
	}
	b, ok := ctx.Value(brokerContextKey{}).(*MessageBroker)
	return b, ok && b != nil
}
