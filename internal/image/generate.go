package image

import (
	"context"
	"fmt"
)

const (
	DefaultWidth    = 512
	DefaultHeight   = 512
	DefaultSteps    = 10
	DefaultGuidance = 7.5
	DefaultSampler  = "euler_a"
)

type Params struct {
	Model          string  `json:"model,omitempty"`
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	Seed           string  `json:"seed,omitempty"`
	Width          int     `json:"width,omitempty"`
	Height         int     `json:"height,omitempty"`
	Steps          int     `json:"steps,omitempty"`
	Guidance       float64 `json:"guidance,omitempty"`
	Sampler        string  `json:"sampler,omitempty"`
	Lora           string  `json:"lora1,omitempty"`
	LoraStrength   float64 `json:"lora1_strength,omitempty"`
}

// WithDefaults fills unset sampling parameters.
func (p Params) WithDefaults() Params {
	if p.Width == 0 {
		p.Width = DefaultWidth
	}
	if p.Height == 0 {
		p.Height = DefaultHeight
	}
	if p.Steps == 0 {
		p.Steps = DefaultSteps
	}
	if p.Guidance == 0 {
		p.Guidance = DefaultGuidance
	}
	if p.Sampler == "" {
		p.Sampler = DefaultSampler
	}
	return p
}

type Generator interface {
	Generate(context.Context, Params) ([]byte, string, error)
}

// StatusError is returned when a backend answers with a non-2xx status.
type StatusError struct {
	Backend string
	Status  int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Backend, e.Status, e.Body)
}
