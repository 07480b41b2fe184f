// Package handlers provides ready-made finder handlers.
package handlers

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/wehubfusion/cheesefinder/pkg/finder"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Announce writes "We found <Item>" for every item, title-cased, and returns status 0
func Announce(w io.Writer) finder.Handler {
	caser := cases.Title(language.English)
	var mu sync.Mutex

	return finder.HandlerFunc(func(_ context.Context, item string) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		// cases.Caser is stateful
		if _, err := fmt.Fprintf(w, "We found %s\n", caser.String(item)); err != nil {
			return 0, fmt.Errorf("failed to announce %q: %w", item, err)
		}
		return 0, nil
	})
}

// Constant returns the same status for every item
func Constant(status int) finder.Handler {
	return finder.HandlerFunc(func(context.Context, string) (int, error) {
		return status, nil
	})
}

// Sequence returns statuses in call order, then 0 once they run out
func Sequence(statuses ...int) finder.Handler {
	var mu sync.Mutex
	next := 0

	return finder.HandlerFunc(func(context.Context, string) (int, error) {
		mu.Lock()
		defer mu.Unlock()

		if next >= len(statuses) {
			return 0, nil
		}
		status := statuses[next]
		next++
		return status, nil
	})
}
