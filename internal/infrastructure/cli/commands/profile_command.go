package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/doeshing/medetech-go/internal/app"
	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/infrastructure/cli/helpers"
)

// NewProfileCommand creates the profile command with show and set
func NewProfileCommand(container *app.Container) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the bio-data profile",
	}

	profileCmd.AddCommand(
		newProfileShowCommand(container),
		newProfileSetCommand(container),
	)

	return profileCmd
}

// newProfileShowCommand creates the 'profile show' subcommand
func newProfileShowCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the saved profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := accountService(container)
			if err != nil {
				return err
			}
			profile, ok := svc.Profile(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNoProfile)
				return nil
			}
			displayProfile(cmd.OutOrStdout(), profile)
			return nil
		},
	}
}

// newProfileSetCommand creates the 'profile set' subcommand
func newProfileSetCommand(container *app.Container) *cobra.Command {
	var (
		name       string
		dob        string
		age        int
		bloodType  string
		allergies  string
		conditions string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields; unspecified fields keep their value",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := accountService(container)
			if err != nil {
				return err
			}
			profile, _ := svc.Profile(cmd.Context())

			flags := cmd.Flags()
			if flags.Changed("name") {
				profile.Name = strings.TrimSpace(name)
			}
			if flags.Changed("dob") {
				profile.DateOfBirth = strings.TrimSpace(dob)
			}
			if flags.Changed("age") {
				value := age
				profile.Age = &value
			}
			if flags.Changed("blood-type") {
				profile.BloodType = strings.ToUpper(strings.TrimSpace(bloodType))
			}
			if flags.Changed("allergies") {
				profile.Allergies = helpers.SplitAndTrimCSV(allergies)
			}
			if flags.Changed("conditions") {
				profile.Conditions = helpers.SplitAndTrimCSV(conditions)
			}

			if err := svc.SaveProfile(cmd.Context(), profile); err != nil {
				return err
			}
			displayProfile(cmd.OutOrStdout(), profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringVar(&dob, "dob", "", "Date of birth (YYYY-MM-DD)")
	cmd.Flags().IntVar(&age, "age", 0, "Age in years")
	cmd.Flags().StringVar(&bloodType, "blood-type", "", "Blood type (e.g. O+)")
	cmd.Flags().StringVar(&allergies, "allergies", "", "Comma separated allergies")
	cmd.Flags().StringVar(&conditions, "conditions", "", "Comma separated medical conditions")
	return cmd
}

func displayProfile(out io.Writer, profile domain.Profile) {
	fmt.Fprintf(out, "Name: %s\n", valueOrDash(profile.Name))
	fmt.Fprintf(out, "Date of birth: %s\n", valueOrDash(profile.DateOfBirth))
	if profile.Age != nil {
		fmt.Fprintf(out, "Age: %d\n", *profile.Age)
	} else {
		fmt.Fprintln(out, "Age: -")
	}
	fmt.Fprintf(out, "Blood type: %s\n", valueOrDash(profile.BloodType))
	fmt.Fprintf(out, "Allergies: %s\n", valueOrDash(strings.Join(profile.Allergies, ", ")))
	fmt.Fprintf(out, "Conditions: %s\n", valueOrDash(strings.Join(profile.Conditions, ", ")))
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
