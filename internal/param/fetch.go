package param

import "context"

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
	FetchAll(context.Context, string) ([]string, error)
}

// Resolve prefers the parameter at path and falls back to value when no path
// is configured.
func Resolve(ctx context.Context, f Fetcher, value, path string) (string, error) {
	if path == "" {
		return value, nil
	}
	return f.Fetch(ctx, path)
}
