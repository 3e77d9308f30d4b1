package notification

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"

	"tracehub.io/tracehub/internal/domain"
)

//go:embed templates/email/*.html
var emailFS embed.FS

const emailBase = "base.html"

// EmailData is the template context for one email.
type EmailData struct {
	Locale       string
	Title        string
	Body         string
	ActionURL    string
	ActionText   string
	ActionObject domain.Event
	Notification *Notification
	Context      map[string]any
}

// EmailRenderer renders variant email templates. Each template is the base
// layout plus a file defining "content".
type EmailRenderer struct {
	localizer Localizer
	templates map[string]*template.Template
}

// NewEmailRenderer parses the embedded templates.
func NewEmailRenderer(localizer Localizer) (*EmailRenderer, error) {
	return newEmailRenderer(localizer, emailFS, "templates/email")
}

func newEmailRenderer(localizer Localizer, fsys fs.FS, dir string) (*EmailRenderer, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read email templates: %w", err)
	}

	// "t" is rebound per render to the recipient's printer.
	placeholder := template.FuncMap{"t": func(key string, _ ...any) string { return key }}

	r := &EmailRenderer{localizer: localizer, templates: make(map[string]*template.Template)}
	for _, e := range entries {
		if e.IsDir() || e.Name() == emailBase || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".html")
		tmpl, err := template.New(emailBase).Funcs(placeholder).
			ParseFS(fsys, path.Join(dir, emailBase), path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("parse email template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}
	return r, nil
}

// Has reports whether a template named name exists.
func (r *EmailRenderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render executes template name in locale.
func (r *EmailRenderer) Render(locale, name string, data EmailData) (string, error) {
	base, ok := r.templates[name]
	if !ok {
		return "", fmt.Errorf("email template %q not found", name)
	}
	tmpl, err := base.Clone()
	if err != nil {
		return "", fmt.Errorf("clone email template %s: %w", name, err)
	}
	p := r.localizer.Printer(locale)
	tmpl.Funcs(template.FuncMap{
		"t": func(key string, args ...any) string { return p.Sprintf(key, args...) },
	})

	data.Locale = locale
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, emailBase, data); err != nil {
		return "", fmt.Errorf("render email template %s (%s): %w", name, locale, err)
	}
	return buf.String(), nil
}
