// Package web renders server-side pages and standalone documents with
// html/template. Templates are embedded in the binary.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ohclinic/ohclinic/pkg/yesno"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// DateLayout is the display format for dates on pages and documents.
const DateLayout = "02/01/2006"

// Renderer implements echo.Renderer. Pages are executed inside the shared
// layout; documents are self-contained HTML used for PDF output.
type Renderer struct {
	pages map[string]*template.Template
	docs  map[string]*template.Template
}

// NewRenderer parses every embedded template.
func NewRenderer() (*Renderer, error) {
	base, err := template.New("base").Funcs(Funcs()).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	r := &Renderer{
		pages: make(map[string]*template.Template),
		docs:  make(map[string]*template.Template),
	}

	pageFiles, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, file := range pageFiles {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse page %s: %w", file, err)
		}
		r.pages[templateName(file)] = t
	}

	docFiles, err := fs.Glob(templateFS, "templates/docs/*.html")
	if err != nil {
		return nil, err
	}
	for _, file := range docFiles {
		name := templateName(file)
		t, err := template.New(path.Base(file)).Funcs(Funcs()).ParseFS(templateFS, file)
		if err != nil {
			return nil, fmt.Errorf("parse document %s: %w", file, err)
		}
		r.docs[name] = t
	}

	return r, nil
}

func templateName(file string) string {
	return strings.TrimSuffix(path.Base(file), ".html")
}

// Render executes a page inside the layout, or a document on its own.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	if t, ok := r.pages[name]; ok {
		return t.ExecuteTemplate(w, "layout", data)
	}
	if t, ok := r.docs[name]; ok {
		return t.Execute(w, data)
	}
	return fmt.Errorf("template %q not found", name)
}

// Document renders a standalone document to a string.
func (r *Renderer) Document(name string, data interface{}) (string, error) {
	t, ok := r.docs[name]
	if !ok {
		return "", fmt.Errorf("document %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render document %s: %w", name, err)
	}
	return buf.String(), nil
}

// StaticFS serves the embedded stylesheet.
func StaticFS() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"yn":      func(v yesno.Value) string { return v.Display("-") },
		"date":    FormatDate,
		"dash":    Dash,
		"inc":     func(i int) int { return i + 1 },
		"mod":     func(i, n int) int { return i % n },
		"has":     contains,
		"dataURL": func(s string) template.URL { return template.URL(s) },
		"isYes":   func(v yesno.Value) bool { return v == yesno.Yes },
		"isNo":    func(v yesno.Value) bool { return v == yesno.No },
		"lines":   func(s string) []string { return strings.Split(s, "\n") },
		"dict":    dict,
	}
}

// dict builds a map from alternating keys and values so partial templates
// can take more than one argument.
func dict(pairs ...interface{}) (map[string]interface{}, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]interface{}, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		k, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", pairs[i])
		}
		m[k] = pairs[i+1]
	}
	return m, nil
}

// FormatDate accepts time.Time or *time.Time; zero and nil render as "-".
func FormatDate(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return "-"
		}
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return "-"
		}
		return t.Format(DateLayout)
	default:
		return "-"
	}
}

// Dash substitutes the placeholder for blank strings.
func Dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
