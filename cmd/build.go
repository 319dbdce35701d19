package cmd

import (
	"fmt"

	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/nikhilchitrapu/portfolio/internal/site"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var buildOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var buildBasePath string

//nolint:gochecknoglobals // Cobra boilerplate
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Export the site as static files",
	Long: `Render every language and theme variant of the page to static HTML.

The toggles become links between variants and fade-in runs in the browser,
so the output can be served from any static host.

Example:
  portfolio build --out dist
  portfolio build --out public --base-path /cv`,
	RunE: runBuild,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildOutputDir, "out", "o", "dist", "Output directory")
	buildCmd.Flags().StringVar(&buildBasePath, "base-path", "", "Path prefix the site is served under")
}

func runBuild(cmd *cobra.Command, args []string) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	store, err := loadContent(cfg, logger)
	if err != nil {
		err = errors.Wrap(err, "failed to load content")
		return err
	}

	pages, err := site.New(nil)
	if err != nil {
		return err
	}

	pair := [2]content.Language{content.Language(cfg.Languages[0]), content.Language(cfg.Languages[1])}
	written, err := pages.Export(buildOutputDir, store, pair, site.ExportOptions{
		BasePath:        buildBasePath,
		DefaultLanguage: content.Language(cfg.DefaultLanguage),
		FadeOffset:      cfg.FadeOffset,
	})
	if err != nil {
		err = errors.Wrap(err, "export failed")
		return err
	}

	if verbose {
		for _, rel := range written {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", rel)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", len(written), buildOutputDir)
	return err
}
