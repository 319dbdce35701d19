package content

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Language is a content language code such as "en" or "de".
type Language string

const (
	English Language = "en"
	German  Language = "de"
)

// LocalizedContent is everything the page displays for one language.
type LocalizedContent struct {
	Profile        Profile      `yaml:"profile" json:"profile"`
	Contact        Contact      `yaml:"contact" json:"contact"`
	Experience     []Experience `yaml:"experience" json:"experience"`
	Education      []Education  `yaml:"education" json:"education"`
	Certifications []string     `yaml:"certifications" json:"certifications"`
	Skills         Skills       `yaml:"skills" json:"skills"`
	Labels         Labels       `yaml:"labels" json:"labels"`
}

// Profile is the header and hero block.
type Profile struct {
	Name    string `yaml:"name" json:"name"`
	Title   string `yaml:"title" json:"title"`
	Summary string `yaml:"summary" json:"summary"`
}

// Contact holds the contact channels shown in the hero and contact sections.
type Contact struct {
	Location string `yaml:"location" json:"location"`
	Email    string `yaml:"email" json:"email"`
	Phone    string `yaml:"phone" json:"phone"`
	LinkedIn string `yaml:"linkedin" json:"linkedin"`
	GitHub   string `yaml:"github" json:"github"`
}

// Experience is one timeline entry.
type Experience struct {
	Period  string   `yaml:"period" json:"period"`
	Company string   `yaml:"company" json:"company"`
	Role    string   `yaml:"role" json:"role"`
	Details []string `yaml:"details" json:"details"`
}

// Education is one degree entry.
type Education struct {
	Degree      string `yaml:"degree" json:"degree"`
	Period      string `yaml:"period" json:"period"`
	Institution string `yaml:"institution" json:"institution"`
}

// Labels are the fixed UI strings around the content.
type Labels struct {
	About            string `yaml:"about" json:"about"`
	Experience       string `yaml:"experience" json:"experience"`
	Education        string `yaml:"education" json:"education"`
	EducationHeading string `yaml:"educationHeading" json:"educationHeading"`
	Skills           string `yaml:"skills" json:"skills"`
	Contact          string `yaml:"contact" json:"contact"`
	DownloadCV       string `yaml:"downloadCV" json:"downloadCV"`
	ToggleLanguage   string `yaml:"toggleLanguage" json:"toggleLanguage"`
	ToggleTheme      string `yaml:"toggleTheme" json:"toggleTheme"`
	ContactName      string `yaml:"contactName" json:"contactName"`
	ContactEmail     string `yaml:"contactEmail" json:"contactEmail"`
	ContactMessage   string `yaml:"contactMessage" json:"contactMessage"`
	ContactSend      string `yaml:"contactSend" json:"contactSend"`
	ContactSuccess   string `yaml:"contactSuccess" json:"contactSuccess"`
	ContactError     string `yaml:"contactError" json:"contactError"`
}

// SkillCategory is one named group of skills.
type SkillCategory struct {
	Name   string
	Skills []string
}

// Skills keeps skill categories in the order they appear in the content file.
type Skills []SkillCategory

// UnmarshalYAML decodes a category mapping while preserving key order.
func (s *Skills) UnmarshalYAML(node *yaml.Node) (err error) {
	if node.Kind != yaml.MappingNode {
		err = errors.Errorf("skills: expected a mapping at line %d", node.Line)
		return err
	}

	out := make(Skills, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var category SkillCategory
		category.Name = node.Content[i].Value
		err = node.Content[i+1].Decode(&category.Skills)
		if err != nil {
			err = errors.Wrapf(err, "skills: category %q", category.Name)
			return err
		}
		out = append(out, category)
	}

	*s = out
	return err
}

// MarshalJSON writes the categories as an object in their original order.
func (s Skills) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, category := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(category.Name)
		if err != nil {
			return nil, err
		}
		skills := category.Skills
		if skills == nil {
			skills = []string{}
		}
		values, err := json.Marshal(skills)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(values)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Category returns the skills of the named category.
func (s Skills) Category(name string) ([]string, bool) {
	for _, category := range s {
		if category.Name == name {
			return category.Skills, true
		}
	}
	return nil, false
}
