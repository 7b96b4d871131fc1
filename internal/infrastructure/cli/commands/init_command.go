package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/medetech-go/internal/app"
	"github.com/doeshing/medetech-go/internal/application/account"
	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/infrastructure/cli/helpers"
)

// NewInitCommand creates the onboarding wizard. It registers the local
// account, optionally records a profile and marks the first launch done.
func NewInitCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Set up your MEDetech account and profile",
		Long: `Set up MEDetech on this device.

The wizard creates the local account, optionally saves a bio-data
profile, and prints where configuration is stored. Afterwards:
  1. Export GEMINI_API_KEY to enable live identification
  2. Run 'medetech doctor' to verify your setup
  3. Try 'medetech ask biogesic' or 'medetech scan photo.jpg'
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInitWizard(cmd, container)
		},
	}
}

func runInitWizard(cmd *cobra.Command, container *app.Container) error {
	svc, err := accountService(container)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	reader := bufio.NewReader(cmd.InOrStdin())

	if user, ok := svc.CurrentUser(ctx); ok {
		question := fmt.Sprintf("An account for %s exists. Replace it?", user.Username)
		if !helpers.PromptForYesNo(out, reader, question, false) {
			fmt.Fprintln(out, MsgInitCancelled)
			return nil
		}
	}

	username := helpers.PromptForString(out, reader, "Username", "")
	password := helpers.PromptForSecret(out, reader, "Password")
	user, err := svc.Register(ctx, username, password)
	if err != nil {
		return err
	}

	if helpers.PromptForYesNo(out, reader, "Add a bio-data profile now?", false) {
		if err := promptForProfile(ctx, out, reader, svc); err != nil {
			return err
		}
	}

	svc.MarkLaunched(ctx)
	displayCompletionInstructions(out, user, container)
	return nil
}

func promptForProfile(ctx context.Context, out io.Writer, reader *bufio.Reader, svc *account.Service) error {
	profile := domain.Profile{
		Name:        helpers.PromptForString(out, reader, "Full name", ""),
		DateOfBirth: helpers.PromptForString(out, reader, "Date of birth (YYYY-MM-DD)", ""),
		BloodType:   strings.ToUpper(helpers.PromptForString(out, reader, "Blood type", "")),
		Allergies:   helpers.SplitAndTrimCSV(helpers.PromptForString(out, reader, "Allergies (comma separated)", "")),
		Conditions:  helpers.SplitAndTrimCSV(helpers.PromptForString(out, reader, "Medical conditions (comma separated)", "")),
	}
	return svc.SaveProfile(ctx, profile)
}

func displayCompletionInstructions(out io.Writer, user domain.User, container *app.Container) {
	fmt.Fprintf(out, "\nAccount created for %s\n", user.Username)
	if container.ConfigLoader != nil {
		fmt.Fprintf(out, "Configuration: %s\n", container.ConfigLoader.Path())
	}
	if container.MockMode {
		fmt.Fprintln(out, "\nNo API key found. Identification returns sample data until you set one:")
		fmt.Fprintln(out, "  export GEMINI_API_KEY=your-key-here")
	}
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  medetech doctor")
	fmt.Fprintln(out, "  medetech ask biogesic")
}
