package prompt

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/samber/do"
)

var ErrNoPrompts = errors.New("no prompts configured")

type Randomizer struct {
	prompts []string
	rnd     *rand.Rand
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts := do.MustInvokeNamed[[]string](i, "prompts")
	rnd := rand.New(rand.NewSource(time.Now().UTC().Unix()))
	return &Randomizer{prompts, rnd}, nil
}

// Randomize returns a style and prompt from a random "style|prompt" entry.
func (r *Randomizer) Randomize(ctx context.Context) (string, string, error) {
	log := logr.FromContextOrDiscard(ctx).WithName("randomizer")
	log.Info("getting random style and prompt")
	if len(r.prompts) == 0 {
		return "", "", ErrNoPrompts
	}
	entry := r.prompts[r.rnd.Intn(len(r.prompts))]
	style, prompt, ok := strings.Cut(entry, "|")
	if !ok {
		return "", "", fmt.Errorf("malformed prompt entry %q", entry)
	}
	return style, prompt, nil
}
