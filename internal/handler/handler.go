package handler

import (
	"context"
	"fmt"

	"github.com/dmorgan81/barroco/internal/feed"
	"github.com/dmorgan81/barroco/internal/image"
	"github.com/dmorgan81/barroco/internal/log"
	"github.com/dmorgan81/barroco/internal/post"
	"github.com/dmorgan81/barroco/internal/prompt"
	"github.com/dmorgan81/barroco/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

// LoRA weights are applied at full strength.
const loraStrength = 1.0

type Input struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
	Seed   string `json:"seed,omitempty"`
}

func (i Input) toImageParams(style prompt.Style) image.Params {
	return image.Params{
		Prompt:       prompt.Compose(i.Prompt, style),
		Seed:         i.Seed,
		Lora:         style.Lora,
		LoraStrength: loraStrength,
	}
}

func (i Input) toMetadata() map[string]string {
	return map[string]string{
		"prompt": i.Prompt,
		"style":  i.Style,
		"seed":   i.Seed,
	}
}

type Output struct {
	Name   string `json:"name"`
	Prompt string `json:"prompt"`
	Style  string `json:"style"`
	Seed   string `json:"seed,omitempty"`
}

type Handler struct {
	styles      prompt.Styles
	randomizer  *prompt.Randomizer
	generator   image.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
	poster      post.Poster
	feed        *feed.Generator
}

func NewHandler(i *do.Injector) (*Handler, error) {
	return &Handler{
		styles:      do.MustInvoke[prompt.Styles](i),
		randomizer:  do.MustInvoke[*prompt.Randomizer](i),
		generator:   do.MustInvoke[image.Generator](i),
		uploader:    do.MustInvoke[store.Uploader](i),
		invalidator: do.MustInvoke[store.Invalidator](i),
		poster:      do.MustInvoke[post.Poster](i),
		feed:        do.MustInvokeNamed[*feed.Generator](i, "feed"),
	}, nil
}

func (h *Handler) Styles() prompt.Styles {
	return h.styles
}

// Generate renders input in its style and stores the result. The stored
// image is also returned.
func (h *Handler) Generate(ctx context.Context, input Input) (Output, []byte, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("style", input.Style)

	style, err := h.styles.Lookup(input.Style)
	if err != nil {
		return Output{}, nil, err
	}

	log.Info("generating image")
	img, seed, err := h.generator.Generate(ctx, input.toImageParams(style))
	if err != nil {
		return Output{}, nil, fmt.Errorf("generating image: %w", err)
	}
	input.Seed = lo.Ternary(seed != "", seed, input.Seed)

	name := store.NewName()
	if err := h.uploader.Upload(ctx, store.UploadParams{
		Name:        name,
		Data:        img,
		ContentType: "image/png",
		Metadata:    input.toMetadata(),
	}); err != nil {
		return Output{}, nil, fmt.Errorf("storing image: %w", err)
	}
	log.Info("image generated", "name", name, "seed", input.Seed)

	return Output{Name: name, Prompt: input.Prompt, Style: input.Style, Seed: input.Seed}, img, nil
}

// Handle serves a direct lambda invocation. Missing fields are filled from
// the configured prompt list. The result is posted and the feed is
// republished afterwards.
func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("input", input)
	log.Info("handling lambda invocation")

	if input.Style == "" || input.Prompt == "" {
		style, prompt, err := h.randomizer.Randomize(ctx)
		if err != nil {
			return Output{}, err
		}
		input.Style = lo.Ternary(input.Style != "", input.Style, style)
		input.Prompt = lo.Ternary(input.Prompt != "", input.Prompt, prompt)
	}

	out, _, err := h.Generate(ctx, input)
	if err != nil {
		return Output{}, err
	}

	if err := h.poster.Post(ctx, post.Params{
		Name:   out.Name,
		Prompt: out.Prompt,
		Style:  out.Style,
		Seed:   out.Seed,
	}); err != nil {
		return Output{}, fmt.Errorf("posting image: %w", err)
	}

	if err := h.publishFeed(ctx); err != nil {
		return Output{}, err
	}
	return out, nil
}

func (h *Handler) publishFeed(ctx context.Context) error {
	if h.feed == nil {
		return nil
	}

	rss, err := h.feed.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generating feed: %w", err)
	}
	if err := h.uploader.Upload(ctx, store.UploadParams{
		Name:        feed.Name,
		Data:        rss,
		ContentType: "application/rss+xml",
	}); err != nil {
		return fmt.Errorf("storing feed: %w", err)
	}
	return h.invalidator.Invalidate(ctx, []string{"/" + feed.Name})
}
