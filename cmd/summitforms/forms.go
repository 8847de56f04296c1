package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/felixgeelhaar/summitforms/internal/adapters/answers"
	"github.com/felixgeelhaar/summitforms/internal/adapters/filesystem"
	"github.com/felixgeelhaar/summitforms/internal/app"
	"github.com/felixgeelhaar/summitforms/internal/domain/config"
	"github.com/felixgeelhaar/summitforms/internal/domain/form"
	"github.com/felixgeelhaar/summitforms/internal/domain/submission"
	"github.com/felixgeelhaar/summitforms/internal/domain/wizard"
	"github.com/felixgeelhaar/summitforms/internal/tui"
	"github.com/spf13/cobra"
)

var (
	formAnswers     string
	formImages      []string
	formInteractive bool
	formDryRun      bool
)

var nominateCmd = newFormCmd(form.KindNomination, "nominate", "Nominate someone for an award",
	`Fill in and submit the award nomination form.

Examples:
  summitforms nominate --interactive
  summitforms nominate --answers nomination.yaml --image nominee_photo=kofi.jpg
  summitforms nominate --answers nomination.toml --dry-run`)

var registerCmd = newFormCmd(form.KindRegistration, "register", "Register for the conference",
	`Fill in and submit the conference registration form.

Examples:
  summitforms register --interactive
  summitforms register --answers me.ini --image photo=me.png`)

func init() {
	rootCmd.AddCommand(nominateCmd)
	rootCmd.AddCommand(registerCmd)
}

func newFormCmd(kind form.Kind, use, short, long string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long:  long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runForm(cmd, kind)
		},
	}
	cmd.Flags().StringVarP(&formAnswers, "answers", "a", "", "answers file (.yaml, .toml or .ini)")
	cmd.Flags().StringArrayVar(&formImages, "image", nil, "image for a photo field as field=path (repeatable)")
	cmd.Flags().BoolVarP(&formInteractive, "interactive", "i", false, "fill the form in the terminal wizard")
	cmd.Flags().BoolVar(&formDryRun, "dry-run", false, "check the answers and list the attempts without sending")
	return cmd
}

func runForm(cmd *cobra.Command, kind form.Kind) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	application, err := loadApp(cmd)
	if err != nil {
		return err
	}
	session, err := application.NewSession(string(kind))
	if err != nil {
		return err
	}
	defer session.Close()

	if formAnswers != "" {
		ans, err := answers.Load(filesystem.NewRealFileSystem(), formAnswers)
		if err != nil {
			return err
		}
		if err := session.Apply(ans); err != nil {
			return err
		}
	}
	for _, arg := range formImages {
		field, path, ok := strings.Cut(arg, "=")
		if !ok || field == "" || path == "" {
			return config.NewUserError(config.ErrCodeValidationFailed, "invalid --image value").
				WithContext(arg).
				WithSuggestion("Use field=path, for example --image photo=me.jpg")
		}
		if err := session.SelectImage(ctx, field, path); err != nil {
			return imageError(field, err)
		}
	}

	if formInteractive {
		session.LoadLookups(ctx)
		result, err := tui.RunWizard(ctx, session, tui.WizardOptions{AltScreen: true})
		if err != nil {
			return err
		}
		if result.Submitted {
			printAccepted(out, result.Report)
		} else {
			fmt.Fprintln(out, "Nothing was submitted.")
		}
		return nil
	}

	warnDuplicate(out, session)

	if formDryRun {
		return dryRun(out, session)
	}

	report, err := session.Complete(ctx)
	if err != nil {
		var gate *wizard.StepGateError
		if errors.As(err, &gate) {
			printGate(out, session, gate)
		}
		return err
	}
	printAccepted(out, report)
	return nil
}

func imageError(field string, err error) error {
	var userErr *config.UserError
	if errors.As(err, &userErr) {
		return err
	}
	return config.NewUserError(config.ErrCodeImageRejected, err.Error()).
		WithContext(field).
		WithSuggestion("Use a JPEG, PNG, GIF or WebP image.").
		WithUnderlying(err)
}

func warnDuplicate(out io.Writer, session *app.Session) {
	prior, found, err := session.Duplicate()
	if err != nil || !found {
		return
	}
	fmt.Fprintf(out, "Warning: identical answers were accepted %s (reference %s). Submitting again may create a duplicate.\n\n",
		humanize.Time(prior.Time), prior.RequestID)
}

func dryRun(out io.Writer, session *app.Session) error {
	def := session.Profile().Definition
	for id := 0; id < def.Terminal(); id++ {
		var gate *wizard.StepGateError
		if errors.As(session.Controller().StepGate(id), &gate) {
			printGate(out, session, gate)
			return gate
		}
	}

	attempts, err := session.Plan()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "All steps are complete. A submission would try, in order:\n")
	for i, a := range attempts {
		fmt.Fprintf(out, "  %2d. %-28s %-9s %s\n", i+1, a.Name, a.Stage, a.Endpoint)
	}
	return nil
}

func printGate(out io.Writer, session *app.Session, gate *wizard.StepGateError) {
	step, _ := session.Profile().Definition.Step(gate.Step)
	fmt.Fprintf(out, "Step %d (%s) is not complete.\n", gate.Step, step.Title)
	for _, name := range gate.Missing {
		fmt.Fprintf(out, "  - %s: required\n", fieldLabel(session, name))
	}
	errs := session.State().Errors()
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  - %s: %s\n", fieldLabel(session, name), errs[name])
	}
	if gate.Reason != "" {
		fmt.Fprintf(out, "  - %s\n", gate.Reason)
	}
	fmt.Fprintln(out)
}

func fieldLabel(session *app.Session, name string) string {
	if f, ok := session.Profile().Field(name); ok && f.Label != "" {
		return f.Label
	}
	return name
}

func printAccepted(out io.Writer, report *submission.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(out, "Submitted. Reference: %s\n", report.RequestID)
	if report.Minimal() {
		fmt.Fprintln(out, "Warning: only your name and email were accepted; the organisers may contact you for the rest.")
	}
	if verbose {
		for _, r := range report.Attempts {
			fmt.Fprintf(out, "  %-28s %s\n", r.Attempt, r.Summary())
		}
	}
}
