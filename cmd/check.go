package cmd

import (
	"fmt"

	"github.com/nikhilchitrapu/portfolio/internal/content"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var checkCmd = &cobra.Command{
	Use:   "check [content-file]",
	Short: "Validate a content file",
	Long: `Load a content file and check that every language has every field.
Without an argument the built-in content is checked.

Example:
  portfolio check i18n.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) (err error) {
	var store *content.Store
	if len(args) == 1 {
		store, err = content.LoadFile(args[0])
	} else {
		store, err = content.Default()
	}
	if err != nil {
		return err
	}

	for _, lang := range store.Languages() {
		var entry *content.LocalizedContent
		entry, err = store.Get(lang)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s, %d positions, %d skill groups\n",
			lang, entry.Profile.Name, len(entry.Experience), len(entry.Skills))
	}
	return err
}
