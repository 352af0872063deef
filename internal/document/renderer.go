package document

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"

	"github.com/sistema-orcamento/orcamento/web"
)

const quoteTemplate = "quote.html"

// Renderer turns views into HTML using the embedded document templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	return NewRendererFS(web.Templates, "templates/documents/*.html")
}

// NewRendererFS parses templates matching pattern from fsys.
func NewRendererFS(fsys fs.FS, pattern string) (*Renderer, error) {
	tmpl, err := template.New("documents").Funcs(template.FuncMap{
		"money":    Money,
		"quantity": Quantity,
		"date":     Date,
		"taxid":    TaxID,
	}).ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// HTML renders the quote document for v.
func (r *Renderer) HTML(v View) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, quoteTemplate, v); err != nil {
		return nil, fmt.Errorf("render quote %s: %w", v.Number, err)
	}
	return buf.Bytes(), nil
}
