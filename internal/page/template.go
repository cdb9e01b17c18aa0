package page

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"sync"

	"github.com/go-logr/logr"
	"github.com/samber/do"
)

//go:embed assets/index.html
var indexTmpl string

//go:embed assets/static
var static embed.FS

type Params struct {
	Title  string
	Styles []string

	// Set when the page answers a form post.
	Prompt string
	Style  string
	Result template.HTML
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator(_ *do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("index").Parse(indexTmpl))
	})

	log := logr.FromContextOrDiscard(ctx).WithName("templator")
	log.Info("generating page", "styles", len(params.Styles))

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}

// Static holds the browser assets served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(static, "assets/static")
	if err != nil {
		panic(err)
	}
	return sub
}
