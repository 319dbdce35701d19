// Package markup renders the small amount of Markdown allowed in content strings.
package markup

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Renderer converts Markdown to sanitised HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

func NewRenderer() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &Renderer{
		md:     goldmark.New(),
		policy: policy,
	}
}

// Block renders src as one or more block elements.
func (r *Renderer) Block(src string) template.HTML {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(strings.TrimSpace(r.policy.Sanitize(buf.String())))
}

// Inline renders src for use inside an existing element, dropping the
// paragraph wrapper a single line of Markdown produces.
func (r *Renderer) Inline(src string) template.HTML {
	out := string(r.Block(src))
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") &&
		strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out)
}

// FuncMap exposes the renderer to templates as "markdown" and "inline".
func (r *Renderer) FuncMap() template.FuncMap {
	return template.FuncMap{
		"markdown": r.Block,
		"inline":   r.Inline,
	}
}
