package main

import (
	"fmt"

	"github.com/felixgeelhaar/summitforms/internal/app"
	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/spf13/cobra"
)

var stepsCmd = &cobra.Command{
	Use:       "steps <form>",
	Short:     "List the steps and fields of a form",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"nomination", "registration"},
	RunE:      runSteps,
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}

func runSteps(cmd *cobra.Command, args []string) error {
	application, err := app.New(config.Default())
	if err != nil {
		return err
	}
	profile, err := application.Profile(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n", profile.Title)
	for _, step := range profile.Definition.Steps {
		fmt.Fprintf(out, "\n%d. %s\n", step.ID, step.Title)
		for _, f := range profile.StepFields(step.ID) {
			marker := " "
			if profile.IsRequired(f.Name) {
				marker = "*"
			}
			fmt.Fprintf(out, "   %s %-24s %-9s %s\n", marker, f.Name, f.Kind, f.Label)
		}
	}
	fmt.Fprintln(out, "\n* required")
	return nil
}
