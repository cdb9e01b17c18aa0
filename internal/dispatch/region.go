package dispatch

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"strings"
	"sync"
)

type StaticField string

func (f StaticField) Value() string {
	return string(f)
}

var fragmentTmpl = template.Must(template.New("result").Parse(
	`{{range .}}{{if .Src}}<img src="{{.Src}}">{{else}}<p>{{.Text}}</p>{{end}}{{end}}`,
))

type node struct {
	Src  template.URL
	Text string
}

// HTMLRegion keeps the contents of a result region and renders them as an
// HTML fragment.
type HTMLRegion struct {
	mu    sync.Mutex
	nodes []node
}

func (r *HTMLRegion) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = nil
}

// AppendImage adds an img element. src must come from ObjectURL.
func (r *HTMLRegion) AppendImage(src string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = append(r.nodes, node{Src: template.URL(src)})
}

// SetError replaces the region contents with a single text paragraph.
func (r *HTMLRegion) SetError(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes = []node{{Text: text}}
}

func (r *HTMLRegion) Images() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var srcs []string
	for _, n := range r.nodes {
		if n.Src != "" {
			srcs = append(srcs, string(n.Src))
		}
	}
	return srcs
}

// Text returns the text content of the region, like innerText.
func (r *HTMLRegion) Text() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	for _, n := range r.nodes {
		sb.WriteString(n.Text)
	}
	return sb.String()
}

func (r *HTMLRegion) HTML() (template.HTML, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var buf bytes.Buffer
	if err := fragmentTmpl.Execute(&buf, r.nodes); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// FileRegion renders images by writing them to Path and errors by printing
// them to Errors.
type FileRegion struct {
	Path   string
	Errors io.Writer

	mu      sync.Mutex
	written bool
	err     error
}

func (r *FileRegion) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.written, r.err = false, nil
}

func (r *FileRegion) AppendImage(src string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	blob, err := ResolveObjectURL(src)
	if err != nil {
		r.err = err
		return
	}
	if r.err = os.WriteFile(r.Path, blob.Data, 0o644); r.err == nil {
		r.written = true
	}
}

func (r *FileRegion) SetError(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.Errors, text)
}

// Written reports whether an image has been saved since the last Clear, and
// the error from saving it, if any.
func (r *FileRegion) Written() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.err
}

// TextIndicator prints loading state changes to W.
type TextIndicator struct {
	W     io.Writer
	Label string

	mu      sync.Mutex
	visible bool
}

func (i *TextIndicator) Show() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.visible = true
	fmt.Fprintf(i.W, "%s...\n", i.label())
}

func (i *TextIndicator) Hide() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.visible = false
	fmt.Fprintf(i.W, "%s done\n", i.label())
}

func (i *TextIndicator) Visible() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.visible
}

func (i *TextIndicator) label() string {
	if i.Label == "" {
		return "generating"
	}
	return i.Label
}
