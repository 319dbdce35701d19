package content

import (
	"fmt"
	"strings"
)

// Validate checks that every required field is present and non-empty.
func (c *LocalizedContent) Validate() error {
	return c.validate("")
}

func (c *LocalizedContent) validate(lang Language) error {
	missing := func(field string) error {
		return &MissingFieldError{Language: lang, Field: field}
	}

	required := []struct {
		field string
		value string
	}{
		{"profile.name", c.Profile.Name},
		{"profile.title", c.Profile.Title},
		{"profile.summary", c.Profile.Summary},
		{"contact.location", c.Contact.Location},
		{"contact.email", c.Contact.Email},
		{"contact.phone", c.Contact.Phone},
		{"contact.linkedin", c.Contact.LinkedIn},
		{"contact.github", c.Contact.GitHub},
		{"labels.about", c.Labels.About},
		{"labels.experience", c.Labels.Experience},
		{"labels.education", c.Labels.Education},
		{"labels.educationHeading", c.Labels.EducationHeading},
		{"labels.skills", c.Labels.Skills},
		{"labels.contact", c.Labels.Contact},
		{"labels.downloadCV", c.Labels.DownloadCV},
		{"labels.toggleLanguage", c.Labels.ToggleLanguage},
		{"labels.toggleTheme", c.Labels.ToggleTheme},
		{"labels.contactName", c.Labels.ContactName},
		{"labels.contactEmail", c.Labels.ContactEmail},
		{"labels.contactMessage", c.Labels.ContactMessage},
		{"labels.contactSend", c.Labels.ContactSend},
		{"labels.contactSuccess", c.Labels.ContactSuccess},
		{"labels.contactError", c.Labels.ContactError},
	}
	for _, r := range required {
		if blank(r.value) {
			return missing(r.field)
		}
	}

	if len(c.Experience) == 0 {
		return missing("experience")
	}
	for i, exp := range c.Experience {
		prefix := fmt.Sprintf("experience[%d]", i)
		switch {
		case blank(exp.Period):
			return missing(prefix + ".period")
		case blank(exp.Company):
			return missing(prefix + ".company")
		case blank(exp.Role):
			return missing(prefix + ".role")
		case len(exp.Details) == 0:
			return missing(prefix + ".details")
		}
		for j, detail := range exp.Details {
			if blank(detail) {
				return missing(fmt.Sprintf("%s.details[%d]", prefix, j))
			}
		}
	}

	if len(c.Education) == 0 {
		return missing("education")
	}
	for i, edu := range c.Education {
		prefix := fmt.Sprintf("education[%d]", i)
		switch {
		case blank(edu.Degree):
			return missing(prefix + ".degree")
		case blank(edu.Period):
			return missing(prefix + ".period")
		case blank(edu.Institution):
			return missing(prefix + ".institution")
		}
	}

	if len(c.Certifications) == 0 {
		return missing("certifications")
	}
	for i, cert := range c.Certifications {
		if blank(cert) {
			return missing(fmt.Sprintf("certifications[%d]", i))
		}
	}

	if len(c.Skills) == 0 {
		return missing("skills")
	}
	for _, category := range c.Skills {
		if blank(category.Name) {
			return missing("skills")
		}
		if len(category.Skills) == 0 {
			return missing("skills." + category.Name)
		}
		for i, skill := range category.Skills {
			if blank(skill) {
				return missing(fmt.Sprintf("skills.%s[%d]", category.Name, i))
			}
		}
	}

	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
