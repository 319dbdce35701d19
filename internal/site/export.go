package site

import (
	"bytes"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/nikhilchitrapu/portfolio/internal/fade"
	"github.com/nikhilchitrapu/portfolio/internal/view"
	"github.com/pkg/errors"
)

// ExportOptions controls a static export.
type ExportOptions struct {
	// BasePath is prefixed to every link, e.g. "/cv" when hosted below the site root.
	BasePath        string
	DefaultLanguage content.Language
	ResumeURL       string
	FadeOffset      float64
}

// PageURL is the exported location of one language/theme variant.
func (o ExportOptions) PageURL(lang content.Language, dark bool) string {
	u := strings.TrimRight(o.BasePath, "/") + "/" + string(lang) + "/"
	if dark {
		u += "dark/"
	}
	return u
}

// Export writes every language × theme variant of the page to dir, plus the
// static assets, and returns the written paths relative to dir. Toggles
// become links between the variants; fade-in runs client-side only.
func (s *Site) Export(dir string, store *content.Store, pair [2]content.Language, opts ExportOptions) (written []string, err error) {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = pair[0]
	}
	if opts.FadeOffset == 0 {
		opts.FadeOffset = fade.DefaultOffset
	}
	base := strings.TrimRight(opts.BasePath, "/")
	if opts.ResumeURL == "" {
		opts.ResumeURL = base + "/resume.pdf"
	}

	for _, lang := range pair {
		for _, dark := range []bool{false, true} {
			var ctrl *view.Controller
			ctrl, err = view.NewController(store, pair, nil, view.WithLanguage(lang), view.WithDarkMode(dark))
			if err != nil {
				return written, err
			}

			var page view.Page
			page, err = ctrl.Page(nil)
			if err != nil {
				return written, err
			}

			data := PageData{
				Page:              page,
				Static:            true,
				StaticPath:        base + "/static",
				ImagesPath:        base + "/images",
				ResumeURL:         opts.ResumeURL,
				ToggleLanguageURL: opts.PageURL(page.SwitchLanguage, dark),
				ToggleThemeURL:    opts.PageURL(lang, !dark),
				FadeOffset:        opts.FadeOffset,
			}

			var buf bytes.Buffer
			err = s.Render(&buf, "index.html", data)
			if err != nil {
				return written, err
			}

			rel := path.Join(string(lang), "index.html")
			if dark {
				rel = path.Join(string(lang), "dark", "index.html")
			}
			err = writeFile(dir, rel, buf.Bytes())
			if err != nil {
				return written, err
			}
			written = append(written, rel)

			if lang == opts.DefaultLanguage && !dark {
				err = writeFile(dir, "index.html", buf.Bytes())
				if err != nil {
					return written, err
				}
				written = append(written, "index.html")
			}
		}
	}

	err = fs.WalkDir(StaticFS(), ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() {
			return walkErr
		}
		data, readErr := fs.ReadFile(StaticFS(), p)
		if readErr != nil {
			return errors.Wrapf(readErr, "failed to read asset %s", p)
		}
		rel := path.Join("static", p)
		if writeErr := writeFile(dir, rel, data); writeErr != nil {
			return writeErr
		}
		written = append(written, rel)
		return nil
	})
	return written, err
}

func writeFile(dir, rel string, data []byte) error {
	target := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", rel)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", rel)
	}
	return nil
}
