// Package iteration walks ordered item lists one item at a time, stopping at the first failure.
package iteration

import "context"

// Walk visits items in order, calling fn once per item.
// It stops at the first error and returns that error unchanged; later items are not visited.
// The context is checked before each item so a cancelled caller halts the walk between calls.
func Walk[T any](ctx context.Context, items []T, fn VisitFunc[T]) error {
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, item, i); err != nil {
			return err
		}
	}
	return nil
}
