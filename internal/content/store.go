// Package content loads the localized résumé content the page is rendered from.
package content

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed i18n.json
var embeddedContent []byte

// ErrUnknownLanguage is returned by Get for a language the store does not hold.
var ErrUnknownLanguage = errors.New("unknown content language")

// MissingFieldError reports a required field absent from one language entry.
type MissingFieldError struct {
	Language Language
	Field    string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("content %s: missing required field %s", e.Language, e.Field)
}

// Store is an immutable, language-keyed lookup of page content.
type Store struct {
	entries map[Language]*LocalizedContent
	order   []Language
}

// Default loads the content file compiled into the binary.
func Default() (store *Store, err error) {
	store, err = Load(embeddedContent)
	if err != nil {
		err = errors.Wrap(err, "embedded content")
		return store, err
	}
	return store, err
}

// LoadFile reads and validates a content file from disk.
func LoadFile(path string) (store *Store, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read content file: %s", path)
		return store, err
	}

	store, err = Load(data)
	if err != nil {
		err = errors.Wrapf(err, "content file %s", path)
		return store, err
	}
	return store, err
}

// Load parses a content document. The document is a JSON (or YAML) object
// keyed by language code; languages keep their document order.
func Load(data []byte) (store *Store, err error) {
	var doc yaml.Node
	err = yaml.Unmarshal(data, &doc)
	if err != nil {
		err = errors.Wrap(err, "failed to parse content")
		return store, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		err = errors.New("content document is empty")
		return store, err
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		err = errors.New("content document must be an object keyed by language")
		return store, err
	}

	store = &Store{entries: map[Language]*LocalizedContent{}}
	for i := 0; i+1 < len(root.Content); i += 2 {
		lang := Language(strings.TrimSpace(root.Content[i].Value))
		if lang == "" {
			err = errors.Errorf("empty language key at line %d", root.Content[i].Line)
			return nil, err
		}
		if _, dup := store.entries[lang]; dup {
			err = errors.Errorf("duplicate language %q", lang)
			return nil, err
		}

		entry := &LocalizedContent{}
		err = root.Content[i+1].Decode(entry)
		if err != nil {
			err = errors.Wrapf(err, "failed to decode language %q", lang)
			return nil, err
		}

		err = entry.validate(lang)
		if err != nil {
			return nil, err
		}

		store.entries[lang] = entry
		store.order = append(store.order, lang)
	}

	if len(store.order) == 0 {
		err = errors.New("content defines no languages")
		return nil, err
	}

	return store, err
}

// Get returns the content for lang. The returned value is shared and must not be modified.
func (s *Store) Get(lang Language) (*LocalizedContent, error) {
	entry, ok := s.entries[lang]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLanguage, "%q", lang)
	}
	return entry, nil
}

// Has reports whether lang is present.
func (s *Store) Has(lang Language) bool {
	_, ok := s.entries[lang]
	return ok
}

// Languages returns the configured languages in document order.
func (s *Store) Languages() []Language {
	out := make([]Language, len(s.order))
	copy(out, s.order)
	return out
}
