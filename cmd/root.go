package cmd

import (
	"os"

	"github.com/kataras/golog"
	"github.com/nikhilchitrapu/portfolio/internal/config"
	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/nikhilchitrapu/portfolio/internal/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var verbose bool

//nolint:gochecknoglobals // Cobra boilerplate
var envFile string

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Serve or export a bilingual résumé site",
	Long: `portfolio serves a single-page résumé in two languages with a dark mode
toggle and scroll-driven fade-in sections.

Settings come from the environment (and an optional .env file). Run
"portfolio serve" for the live site or "portfolio build" for static files.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Additional .env file to load")
}

// loadConfig reads the environment, letting --verbose force debug logging.
func loadConfig() (cfg config.Config, err error) {
	cfg, err = config.Load(envFile)
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return cfg, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, err
}

// loadContent reads the configured content file, or the built-in content.
func loadContent(cfg config.Config, logger *golog.Logger) (store *content.Store, err error) {
	if cfg.ContentFile == "" {
		store, err = content.Default()
		return store, err
	}
	logger.Infof("Loading content from %s", cfg.ContentFile)
	store, err = content.LoadFile(cfg.ContentFile)
	return store, err
}

func newLogger(cfg config.Config) *golog.Logger {
	return logging.New(cfg.LogLevel)
}
