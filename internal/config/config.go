// Package config reads server settings from the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config is the server configuration. Every field maps to an environment variable.
type Config struct {
	Port     string `env:"PORT" envDefault:"8080"`
	GinMode  string `env:"GIN_MODE" envDefault:"release"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// ContentFile overrides the content compiled into the binary.
	ContentFile       string   `env:"CONTENT_FILE"`
	Languages         []string `env:"LANGUAGES" envSeparator:"," envDefault:"en,de"`
	DefaultLanguage   string   `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	NegotiateLanguage bool     `env:"NEGOTIATE_LANGUAGE" envDefault:"false"`

	ResumePath string        `env:"RESUME_PATH" envDefault:"./static/resume.pdf"`
	ImagesDir  string        `env:"IMAGES_DIR" envDefault:"./images"`
	FadeOffset float64       `env:"FADE_OFFSET" envDefault:"60"`
	ViewTTL    time.Duration `env:"VIEW_TTL" envDefault:"30m"`
	// MaxViews caps live page views; past it the least recently used one is dropped.
	MaxViews   int           `env:"MAX_VIEWS" envDefault:"10000"`

	Analytics AnalyticsConfig `envPrefix:"ANALYTICS_"`
	Admin     AdminConfig     `envPrefix:"ADMIN_"`
	SMTP      SMTPConfig      `envPrefix:"SMTP_"`
	ContactTo string          `env:"TO_EMAIL"`
}

// AnalyticsConfig controls the visit log.
type AnalyticsConfig struct {
	Enabled   bool          `env:"ENABLED" envDefault:"true"`
	Database  string        `env:"DATABASE" envDefault:"portfolio.db"`
	Retention time.Duration `env:"RETENTION" envDefault:"8760h"`
}

// AdminConfig holds the dashboard credentials. An empty password disables the dashboard.
type AdminConfig struct {
	Username string `env:"USERNAME" envDefault:"admin"`
	Password string `env:"PASSWORD"`
}

// SMTPConfig is used by the contact form.
type SMTPConfig struct {
	Host string `env:"HOST" envDefault:"smtp.gmail.com"`
	Port string `env:"PORT" envDefault:"587"`
	User string `env:"USER"`
	Pass string `env:"PASS"`
}

// Load reads the given .env files, if any, then parses and validates the environment.
func Load(envFiles ...string) (cfg Config, err error) {
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		err = godotenv.Load(file)
		if err != nil {
			err = errors.Wrapf(err, "failed to load env file: %s", file)
			return cfg, err
		}
	}

	err = env.Parse(&cfg)
	if err != nil {
		err = errors.Wrap(err, "parse env")
		return cfg, err
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}
	return cfg, err
}

// Validate checks values env tags cannot express and normalises language codes.
func (c *Config) Validate() (err error) {
	langs := make([]string, 0, len(c.Languages))
	for _, lang := range c.Languages {
		if lang = strings.ToLower(strings.TrimSpace(lang)); lang != "" {
			langs = append(langs, lang)
		}
	}
	c.Languages = langs
	c.DefaultLanguage = strings.ToLower(strings.TrimSpace(c.DefaultLanguage))

	if len(c.Languages) != 2 || c.Languages[0] == c.Languages[1] {
		err = errors.Errorf("LANGUAGES must name exactly two distinct languages, got %q", c.Languages)
		return err
	}

	if c.DefaultLanguage != c.Languages[0] && c.DefaultLanguage != c.Languages[1] {
		err = errors.Errorf("DEFAULT_LANGUAGE %q is not one of %q", c.DefaultLanguage, c.Languages)
		return err
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		err = errors.Errorf("GIN_MODE must be debug, release or test, got %q", c.GinMode)
		return err
	}

	if c.ViewTTL <= 0 {
		err = errors.New("VIEW_TTL must be positive")
		return err
	}

	if c.MaxViews < 1 {
		err = errors.New("MAX_VIEWS must be at least 1")
		return err
	}

	if c.FadeOffset < 0 {
		err = errors.New("FADE_OFFSET must not be negative")
		return err
	}

	if c.ContentFile != "" {
		_, err = os.Stat(c.ContentFile)
		if err != nil {
			err = errors.Wrapf(err, "content file not found: %s", c.ContentFile)
			return err
		}
	}

	return err
}

// ContactEnabled reports whether SMTP credentials are configured.
func (c *Config) ContactEnabled() bool {
	return c.SMTP.User != "" && c.SMTP.Pass != ""
}

// ContactRecipient is where contact form messages go; it defaults to the SMTP user.
func (c *Config) ContactRecipient() string {
	if c.ContactTo != "" {
		return c.ContactTo
	}
	return c.SMTP.User
}
