package main

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/domain/fields"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a single field value the way the forms do",
}

var checkEmailCmd = &cobra.Command{
	Use:   "email <address>",
	Short: "Check an email address against the accepted providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !fields.ValidateEmail(args[0]) {
			return config.NewUserError(config.ErrCodeValidationFailed, "not an accepted email address").
				WithContext(args[0]).
				WithSuggestion("Use a personal address at " + strings.Join(fields.AllowedEmailDomains, ", "))
		}
		fmt.Fprintln(cmd.OutOrStdout(), "valid")
		return nil
	},
}

var checkPhoneCmd = &cobra.Command{
	Use:   "phone <number>",
	Short: "Normalize a phone number and check it has ten digits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		normalized := fields.NormalizePhone(args[0])
		if !fields.ValidatePhone(args[0]) {
			return config.NewUserError(config.ErrCodeValidationFailed,
				fmt.Sprintf("phone number must contain exactly %d digits, got %d", fields.PhoneDigits, len(normalized))).
				WithContext(args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), normalized)
		return nil
	},
}

func init() {
	checkCmd.AddCommand(checkEmailCmd)
	checkCmd.AddCommand(checkPhoneCmd)
	rootCmd.AddCommand(checkCmd)
}
