package view

import (
	"strings"

	"github.com/nikhilchitrapu/portfolio/internal/content"
)

// Section ids, in page order. These are the fade-in targets.
const (
	SectionAbout      = "about"
	SectionExperience = "experience"
	SectionEducation  = "education"
	SectionSkills     = "skills"
	SectionContact    = "contact"
)

// SectionIDs lists every fade-in section in page order.
var SectionIDs = []string{SectionAbout, SectionExperience, SectionEducation, SectionSkills, SectionContact}

// Section is a nav entry and fade-in region.
type Section struct {
	ID      string
	Label   string
	Visible bool
}

// Page is everything a template needs to render the résumé.
type Page struct {
	Language       content.Language
	SwitchLanguage content.Language
	SwitchLabel    string
	Dark           bool
	Content        *content.LocalizedContent
	Labels         content.Labels
	Sections       []Section
}

// Section returns the section with the given id.
func (p Page) Section(id string) Section {
	for _, s := range p.Sections {
		if s.ID == id {
			return s
		}
	}
	return Section{ID: id}
}

// Page builds render data from the current state. visible reports whether a
// section has faded in; nil means none has.
func (c *Controller) Page(visible func(id string) bool) (Page, error) {
	state := c.State()
	entry, err := c.store.Get(state.Language)
	if err != nil {
		return Page{}, err
	}

	next := c.other(state.Language)
	page := Page{
		Language:       state.Language,
		SwitchLanguage: next,
		SwitchLabel:    strings.ToUpper(string(next)),
		Dark:           state.DarkMode,
		Content:        entry,
		Labels:         entry.Labels,
	}

	labels := map[string]string{
		SectionAbout:      entry.Labels.About,
		SectionExperience: entry.Labels.Experience,
		SectionEducation:  entry.Labels.Education,
		SectionSkills:     entry.Labels.Skills,
		SectionContact:    entry.Labels.Contact,
	}
	for _, id := range SectionIDs {
		page.Sections = append(page.Sections, Section{
			ID:      id,
			Label:   labels[id],
			Visible: visible != nil && visible(id),
		})
	}
	return page, nil
}
