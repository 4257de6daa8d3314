package port

import "context"

// RenderFunc produces a fresh rendering of a view.
type RenderFunc func(ctx context.Context) ([]byte, error)

// PageCache stores rendered views keyed by route path and a variant (the
// normalized query string).
type PageCache interface {
	// Render returns the cached rendering of path/variant, calling render on a miss.
	// A rendering started before a Revalidate of path is never served after it.
	Render(ctx context.Context, path, variant string, render RenderFunc) ([]byte, error)

	// Revalidate marks every cached rendering of path stale
	Revalidate(ctx context.Context, path string) error
}
