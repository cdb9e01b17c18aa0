package store

import (
	"context"
)

type Invalidator interface {
	Invalidate(context.Context, []string) error
}

// NoopInvalidator is used when nothing caches the stored objects.
type NoopInvalidator struct{}

func (NoopInvalidator) Invalidate(context.Context, []string) error {
	return nil
}
