package post

import "context"

type Params struct {
	Name   string
	Prompt string
	Style  string
	Seed   string
}

type Poster interface {
	Post(context.Context, Params) error
}

// NoopPoster is used when no subreddit is configured.
type NoopPoster struct{}

func (NoopPoster) Post(context.Context, Params) error {
	return nil
}
