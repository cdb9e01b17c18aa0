package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/dmorgan81/barroco/internal/feed"
	"github.com/dmorgan81/barroco/internal/post"
	"github.com/dmorgan81/barroco/internal/prompt"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRandomizer(t *testing.T, prompts ...string) *prompt.Randomizer {
	t.Helper()
	injector := do.New()
	do.ProvideNamedValue[[]string](injector, "prompts", prompts)
	r, err := prompt.NewRandomizer(injector)
	require.NoError(t, err)
	return r
}

func TestGenerate(t *testing.T) {
	gen := &mockGenerator{data: []byte("img"), seed: "99"}
	up := &mockUploader{}
	h := &Handler{styles: prompt.DefaultStyles(), generator: gen, uploader: up}

	out, img, err := h.Generate(context.Background(), Input{Prompt: "a cat", Style: "murales"})
	require.NoError(t, err)

	assert.Equal(t, []byte("img"), img)
	assert.Equal(t, "a cat", out.Prompt)
	assert.Equal(t, "murales", out.Style)
	assert.Equal(t, "99", out.Seed)
	assert.Equal(t, "a cat in the style of murales del barroco andino", gen.params.Prompt)
	assert.Equal(t, "murales_lora", gen.params.Lora)

	require.Len(t, up.uploads, 1)
	assert.Equal(t, out.Name, up.uploads[0].Name)
	assert.Equal(t, "image/png", up.uploads[0].ContentType)
	assert.Equal(t, map[string]string{"prompt": "a cat", "style": "murales", "seed": "99"}, up.uploads[0].Metadata)
}

func TestGenerateErrors(t *testing.T) {
	t.Run("unknown style", func(t *testing.T) {
		gen := &mockGenerator{}
		h := &Handler{styles: prompt.DefaultStyles(), generator: gen, uploader: &mockUploader{}}

		_, _, err := h.Generate(context.Background(), Input{Prompt: "a cat", Style: "watercolor"})
		assert.ErrorIs(t, err, prompt.ErrUnknownStyle)
		assert.Empty(t, gen.params.Prompt, "generator must not run")
	})

	t.Run("generator failure", func(t *testing.T) {
		h := &Handler{
			styles:    prompt.DefaultStyles(),
			generator: &mockGenerator{err: errors.New("gpu on fire")},
			uploader:  &mockUploader{},
		}
		_, _, err := h.Generate(context.Background(), Input{Prompt: "a cat", Style: "murales"})
		assert.ErrorContains(t, err, "generating image: gpu on fire")
	})

	t.Run("upload failure", func(t *testing.T) {
		h := &Handler{
			styles:    prompt.DefaultStyles(),
			generator: &mockGenerator{data: []byte("img")},
			uploader:  &mockUploader{err: errors.New("disk full")},
		}
		_, _, err := h.Generate(context.Background(), Input{Prompt: "a cat", Style: "murales"})
		assert.ErrorContains(t, err, "storing image: disk full")
	})
}

func TestHandleRandomizesMissingFields(t *testing.T) {
	gen := &mockGenerator{data: []byte("img")}
	h := &Handler{
		styles:     prompt.DefaultStyles(),
		randomizer: newRandomizer(t, "esculturas|a saint with a golden halo"),
		generator:  gen,
		uploader:   &mockUploader{},
		poster:     post.NoopPoster{},
	}

	out, err := h.Handle(context.Background(), Input{Prompt: "a condor"})
	require.NoError(t, err)
	assert.Equal(t, "esculturas", out.Style)
	assert.Equal(t, "a condor", out.Prompt)
}

func TestHandleWithoutPrompts(t *testing.T) {
	h := &Handler{styles: prompt.DefaultStyles(), randomizer: newRandomizer(t)}

	_, err := h.Handle(context.Background(), Input{})
	assert.ErrorIs(t, err, prompt.ErrNoPrompts)
}

func TestHandlePublishesFeed(t *testing.T) {
	up := &mockUploader{}
	inv := &mockInvalidator{}
	poster := &mockPoster{}
	h := &Handler{
		styles:      prompt.DefaultStyles(),
		generator:   &mockGenerator{data: []byte("img"), seed: "7"},
		uploader:    up,
		invalidator: inv,
		poster:      poster,
		feed:        feed.New(&mockBucket{uploader: up}, "images", "https://barroco.example"),
	}

	out, err := h.Handle(context.Background(), Input{Prompt: "a cat", Style: "murales"})
	require.NoError(t, err)

	require.Len(t, up.uploads, 2)
	assert.Equal(t, out.Name, up.uploads[0].Name)
	assert.Equal(t, feed.Name, up.uploads[1].Name)
	assert.Equal(t, "application/rss+xml", up.uploads[1].ContentType)
	assert.Contains(t, string(up.uploads[1].Data), "a cat:murales:7")
	assert.Equal(t, []string{"/feed.xml"}, inv.paths)
	assert.Equal(t, []post.Params{{Name: out.Name, Prompt: "a cat", Style: "murales", Seed: "7"}}, poster.posts)
}

func TestHandlePostFailure(t *testing.T) {
	up := &mockUploader{}
	h := &Handler{
		styles:    prompt.DefaultStyles(),
		generator: &mockGenerator{data: []byte("img")},
		uploader:  up,
		poster:    &mockPoster{err: errors.New("rate limited")},
	}

	_, err := h.Handle(context.Background(), Input{Prompt: "a cat", Style: "murales"})
	assert.ErrorContains(t, err, "posting image: rate limited")
	assert.Len(t, up.uploads, 1, "image is stored before posting")
}
