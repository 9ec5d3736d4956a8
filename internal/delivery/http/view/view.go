package view

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/gofiber/fiber/v3"
)

//go:embed templates/*.html
var files embed.FS

// Flash is a one-shot notification rendered on the next page load.
type Flash struct {
	Kind    string // "success" | "error"
	Message string
}

// Page carries the fields every template's chrome needs.
type Page struct {
	Title         string
	Authenticated bool
	UserName      string
	Flash         *Flash
}

type Renderer struct {
	t *template.Template
}

func NewRenderer() (*Renderer, error) {
	funcs := template.FuncMap{
		"dayKey":   func(t time.Time) string { return t.Format("2006-01-02") },
		"dayTitle": func(t time.Time) string { return t.Format("Mon, Jan 2") },
		"timeHM":   func(t time.Time) string { return t.Format("15:04") },
		"monthDay": func(t time.Time) string { return t.Format("Jan 2") },
		"longDate": func(t time.Time) string { return t.Format("Jan 2, 2006 15:04") },
		// Value format for <input type="datetime-local">.
		"dtLocal": func(t time.Time) string { return t.Format("2006-01-02T15:04") },
	}

	t, err := template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{t: t}, nil
}

// HTML executes the named template into a buffer first so a render error
// never leaks a half-written page.
func (r *Renderer) HTML(c fiber.Ctx, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(buf.Bytes())
}
