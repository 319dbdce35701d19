package server

import (
	"net/http"
	"strings"

	"github.com/nikhilchitrapu/portfolio/internal/content"
	"golang.org/x/text/language"
)

// LangParam selects the initial language of a page load.
const LangParam = "lang"

// languageResolver picks the starting language of a new page view.
type languageResolver struct {
	pair      [2]content.Language
	fallback  content.Language
	negotiate bool
	matcher   language.Matcher
}

func newLanguageResolver(pair [2]content.Language, fallback content.Language, negotiate bool) *languageResolver {
	return &languageResolver{
		pair:      pair,
		fallback:  fallback,
		negotiate: negotiate,
		matcher:   language.NewMatcher([]language.Tag{language.Make(string(pair[0])), language.Make(string(pair[1]))}),
	}
}

// Resolve checks the lang query param, then Accept-Language when
// negotiation is on, and otherwise returns the fallback.
func (l *languageResolver) Resolve(r *http.Request) content.Language {
	if r == nil {
		return l.fallback
	}

	if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
		if lang, ok := l.parse(value); ok {
			return lang
		}
	}

	if l.negotiate {
		if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
			if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
				if _, index, confidence := l.matcher.Match(tags...); confidence != language.No {
					return l.pair[index]
				}
			}
		}
	}

	return l.fallback
}

func (l *languageResolver) parse(value string) (content.Language, bool) {
	tag, err := language.Parse(value)
	if err != nil {
		return "", false
	}
	base, _ := tag.Base()
	for _, lang := range l.pair {
		if base.String() == string(lang) {
			return lang, true
		}
	}
	return "", false
}
