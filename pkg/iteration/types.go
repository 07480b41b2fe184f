package iteration

import "context"

// VisitFunc is the function called for each item during a walk
type VisitFunc[T any] func(ctx context.Context, item T, index int) error
