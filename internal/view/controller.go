// Package view owns the per-page UI state and turns it, together with the
// content store, into plain render data.
package view

import (
	"strings"
	"sync"

	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/pkg/errors"
)

// DarkClass is the document root marker that switches on themed styling.
const DarkClass = "dark"

// ThemeMarker is the presentation flag kept in step with the dark-mode state.
type ThemeMarker interface {
	SetDark(on bool)
}

// State is the UI state of one page session.
type State struct {
	Language content.Language
	DarkMode bool
}

// Option seeds a Controller's initial state.
type Option func(*Controller) error

// WithLanguage starts the controller in lang, which must be one of its pair.
func WithLanguage(lang content.Language) Option {
	return func(c *Controller) error {
		if lang != c.pair[0] && lang != c.pair[1] {
			return errors.Errorf("language %q is not one of %s/%s", lang, c.pair[0], c.pair[1])
		}
		c.state.Language = lang
		return nil
	}
}

// WithDarkMode starts the controller with dark mode on or off.
func WithDarkMode(on bool) Option {
	return func(c *Controller) error {
		c.state.DarkMode = on
		return nil
	}
}

// Controller holds the language and dark-mode flags for one page session.
// The language toggle cycles between exactly two languages.
type Controller struct {
	mu     sync.Mutex
	store  *content.Store
	pair   [2]content.Language
	marker ThemeMarker
	state  State
}

// NewController starts in pair[0] with dark mode off unless options say otherwise.
// Both languages of pair must be distinct and present in store.
func NewController(store *content.Store, pair [2]content.Language, marker ThemeMarker, opts ...Option) (*Controller, error) {
	if store == nil {
		return nil, errors.New("view: nil content store")
	}
	if pair[0] == pair[1] {
		return nil, errors.Errorf("view: language toggle needs two distinct languages, got %q twice", pair[0])
	}
	for _, lang := range pair {
		if !store.Has(lang) {
			return nil, errors.Wrapf(content.ErrUnknownLanguage, "view: toggle language %q", lang)
		}
	}

	c := &Controller{
		store:  store,
		pair:   pair,
		marker: marker,
		state:  State{Language: pair[0]},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.marker != nil {
		c.marker.SetDark(c.state.DarkMode)
	}
	return c, nil
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ToggleLanguage switches to the other language of the pair.
func (c *Controller) ToggleLanguage() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Language = c.other(c.state.Language)
	return c.state
}

// ToggleDarkMode flips dark mode and updates the theme marker before any
// other caller can observe the new state.
func (c *Controller) ToggleDarkMode() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.DarkMode = !c.state.DarkMode
	if c.marker != nil {
		c.marker.SetDark(c.state.DarkMode)
	}
	return c.state
}

// Content returns the content for the current language.
func (c *Controller) Content() (*content.LocalizedContent, error) {
	return c.store.Get(c.State().Language)
}

func (c *Controller) other(lang content.Language) content.Language {
	if lang == c.pair[0] {
		return c.pair[1]
	}
	return c.pair[0]
}

// RootClasses is the class set of the document root element.
type RootClasses struct {
	mu      sync.Mutex
	classes []string
}

var _ ThemeMarker = (*RootClasses)(nil)

// SetDark adds or removes DarkClass.
func (r *RootClasses) SetDark(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.classes[:0]
	for _, class := range r.classes {
		if class != DarkClass {
			out = append(out, class)
		}
	}
	if on {
		out = append(out, DarkClass)
	}
	r.classes = out
}

// Has reports whether class is set.
func (r *RootClasses) Has(class string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.classes {
		if c == class {
			return true
		}
	}
	return false
}

// String renders the class attribute value.
func (r *RootClasses) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.classes, " ")
}
