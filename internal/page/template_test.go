package page

import (
	"context"
	"html/template"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate(t *testing.T) {
	tmpl := &Templator{}
	html, err := tmpl.Template(context.Background(), Params{
		Title:  "Barroco",
		Styles: []string{"murales", "<esculturas>"},
	})
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "<title>Barroco</title>")
	assert.Contains(t, out, `<option value="murales">murales</option>`)
	assert.Contains(t, out, "&lt;esculturas&gt;")
	for _, id := range []string{`id="prompt"`, `id="style"`, `id="loading"`, `id="result"`} {
		assert.Contains(t, out, id)
	}
}

func TestStatic(t *testing.T) {
	data, err := fs.ReadFile(Static(), "script.js")
	require.NoError(t, err)
	assert.Contains(t, string(data), "/generate_image/")
}

func TestTemplateFormPost(t *testing.T) {
	tmpl := &Templator{}
	html, err := tmpl.Template(context.Background(), Params{
		Title:  "Barroco",
		Styles: []string{"murales", "pinturas"},
		Prompt: `a "cat"`,
		Style:  "pinturas",
		Result: template.HTML(`<p>Error: nope</p>`),
	})
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, `value="a &#34;cat&#34;"`)
	assert.Contains(t, out, `<option value="pinturas" selected>pinturas</option>`)
	assert.Contains(t, out, `<option value="murales">murales</option>`)
	assert.Contains(t, out, `<div id="result"><p>Error: nope</p></div>`)
}
