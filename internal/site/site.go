// Package site holds the page templates and static assets, and renders the
// résumé either for the live server or as a set of static files.
package site

import (
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/nikhilchitrapu/portfolio/internal/markup"
	"github.com/nikhilchitrapu/portfolio/internal/view"
	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// PageData is the template model for index.html and the "page" fragment.
type PageData struct {
	view.Page

	ViewID            string
	Static            bool
	StaticPath        string
	ImagesPath        string
	ResumeURL         string
	ToggleLanguageURL string
	ToggleThemeURL    string
	FadeOffset        float64
	ContactEnabled    bool
}

// Site renders the embedded templates.
type Site struct {
	tmpl *template.Template
}

// New parses the embedded templates with the Markdown helpers installed.
func New(md *markup.Renderer) (*Site, error) {
	if md == nil {
		md = markup.NewRenderer()
	}
	tmpl, err := template.New("site").Funcs(md.FuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}
	return &Site{tmpl: tmpl}, nil
}

// Templates returns the parsed template set, for gin's HTML renderer.
func (s *Site) Templates() *template.Template {
	return s.tmpl
}

// Render executes the named template.
func (s *Site) Render(w io.Writer, name string, data any) error {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		return errors.Wrapf(err, "failed to render %s", name)
	}
	return nil
}

// StaticFS returns the embedded assets rooted at their directory.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The directory is embedded at build time, so this cannot fail at run time.
		panic(err)
	}
	return sub
}
