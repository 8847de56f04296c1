package main

import (
	"fmt"

	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/spf13/cobra"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Generate or check account passwords",
}

var passwordGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a strong password",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), fields.GenerateStrongPassword())
	},
}

var passwordCheckCmd = &cobra.Command{
	Use:   "check <password>",
	Short: "Score a password against the account rules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := fields.ScorePasswordStrength(args[0])
		if !s.IsValid {
			return config.NewUserError(config.ErrCodeValidationFailed, s.Message).
				WithSuggestion("Run 'summitforms password generate' for a strong password.")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (score %d/%d)\n", s.Strength, s.Score, fields.MaxPasswordScore)
		return nil
	},
}

func init() {
	passwordCmd.AddCommand(passwordGenerateCmd)
	passwordCmd.AddCommand(passwordCheckCmd)
	rootCmd.AddCommand(passwordCmd)
}
