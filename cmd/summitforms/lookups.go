package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/domain/lookups"
	"github.com/spf13/cobra"
)

var lookupsCmd = &cobra.Command{
	Use:   "lookups [kind]",
	Short: "Show the lookup lists used by select fields",
	Long: `Load the lookup lists from the API. When a list cannot be loaded the
built-in list is shown instead and marked as such.

Kinds: job-title, user-title, regions, districts, categories`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"job-title", "user-title", "regions", "districts", "categories"},
	RunE:      runLookups,
}

func init() {
	rootCmd.AddCommand(lookupsCmd)
}

func runLookups(cmd *cobra.Command, args []string) error {
	kinds := lookups.Kinds
	if len(args) == 1 {
		kind, err := lookups.ParseKind(args[0])
		if err != nil {
			return config.NewUserError(config.ErrCodeValidationFailed, err.Error()).
				WithSuggestion("Kinds: " + strings.Join(kindNames(), ", "))
		}
		kinds = []lookups.Kind{kind}
	}

	application, err := loadApp(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, kind := range kinds {
		list := application.Lookups().Fetch(cmd.Context(), kind)
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%s)\n", kind, list.Source)
		if list.Err != nil && verbose {
			fmt.Fprintf(out, "  could not load: %v\n", list.Err)
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		for _, opt := range list.Options {
			fmt.Fprintf(w, "  %s\t%s\n", opt.Value, opt.Label)
		}
		_ = w.Flush()
	}
	return nil
}

func kindNames() []string {
	names := make([]string, len(lookups.Kinds))
	for i, k := range lookups.Kinds {
		names[i] = string(k)
	}
	return names
}
