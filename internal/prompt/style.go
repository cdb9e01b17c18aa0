package prompt

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
)

var ErrUnknownStyle = errors.New("unknown style")

type UnknownStyleError struct {
	Name string
}

func (e *UnknownStyleError) Error() string {
	return fmt.Sprintf("style '%s' is not available", e.Name)
}

func (e *UnknownStyleError) Is(target error) bool {
	return target == ErrUnknownStyle
}

type Style struct {
	Name   string
	Suffix string
	Lora   string
}

// Styles maps a style name to its fine-tuned weights and the text appended
// to every prompt rendered in that style.
type Styles map[string]Style

func DefaultStyles() Styles {
	return Styles{
		"cuadros-coleccion": {
			Name:   "cuadros-coleccion",
			Suffix: "in the style of cuadros de coleccion del barroco andino",
			Lora:   "cuadros-coleccion_lora",
		},
		"cuadros-figuras": {
			Name:   "cuadros-figuras",
			Suffix: "in the style of cuadros de figuras del barroco andino",
			Lora:   "cuadros-figuras_lora",
		},
		"esculturas": {
			Name:   "esculturas",
			Suffix: "in the style of esculturas del barroco andino",
			Lora:   "esculturas_lora",
		},
		"esculturas-coleccion": {
			Name:   "esculturas-coleccion",
			Suffix: "in the style of esculturas de coleccion del barroco andino",
			Lora:   "esculturas-coleccion_lora",
		},
		"murales": {
			Name:   "murales",
			Suffix: "in the style of murales del barroco andino",
			Lora:   "murales_lora",
		},
	}
}

func (s Styles) Lookup(name string) (Style, error) {
	style, ok := s[name]
	if !ok {
		return Style{}, &UnknownStyleError{Name: name}
	}
	return style, nil
}

func (s Styles) Names() []string {
	names := lo.Keys(s)
	sort.Strings(names)
	return names
}

func Compose(prompt string, style Style) string {
	return prompt + " " + style.Suffix
}
