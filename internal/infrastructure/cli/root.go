package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doeshing/medetech-go/internal/app"
	"github.com/doeshing/medetech-go/internal/domain"
	"github.com/doeshing/medetech-go/internal/infrastructure/cli/commands"
	"github.com/doeshing/medetech-go/internal/infrastructure/cli/helpers"
)

// Options holds CLI-level configuration.
type Options struct {
	Verbose    bool
	ConfigPath string
}

// NewRootCmd builds the container and wires the cobra root command. The
// returned cleanup releases storage handles.
func NewRootCmd(ctx context.Context, opts Options) (*cobra.Command, func() error, error) {
	container, err := app.BuildContainer(ctx, app.Options{
		ConfigPath: opts.ConfigPath,
		Verbose:    opts.Verbose,
	})
	if err != nil {
		return nil, nil, err
	}
	return newRootCommand(container), container.Close, nil
}

func newRootCommand(container *app.Container) *cobra.Command {
	root := &cobra.Command{
		Use:   "medetech",
		Short: "MEDetech - medicine identification assistant",
		Long: "MEDetech identifies medicines from a photo or a name and keeps a local scan history.\n" +
			"Results are informational only. Consult a doctor or pharmacist.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			greetFirstLaunch(cmd, container)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newScanCommand(container),
		newAskCommand(container),
		commands.NewInitCommand(container),
		commands.NewHistoryCommand(container),
		commands.NewAccountCommand(container),
		commands.NewProfileCommand(container),
		commands.NewConfigCommand(container),
		commands.NewDoctorCommand(container),
		commands.NewServeCommand(container),
		commands.NewVersionCommand(),
	)
	return root
}

func greetFirstLaunch(cmd *cobra.Command, container *app.Container) {
	if container.AccountService == nil || cmd.Name() == "init" {
		return
	}
	if container.AccountService.IsFirstLaunch(cmd.Context()) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Welcome to MEDetech. Run 'medetech init' to create your account and profile.")
		container.AccountService.MarkLaunched(cmd.Context())
	}
}

type identifyFlags struct {
	asJSON  bool
	timeout time.Duration
}

func (f *identifyFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Abort identification after this duration (0 waits indefinitely)")
}

func newScanCommand(container *app.Container) *cobra.Command {
	var flags identifyFlags

	cmd := &cobra.Command{
		Use:   "scan <image-file|->",
		Short: "Identify a medicine from a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readImage(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			encoded := base64.StdEncoding.EncodeToString(data)
			return runIdentification(cmd, flags, container, func(ctx context.Context) (domain.MedicineRecord, error) {
				return container.IdentifyService.IdentifyByImage(ctx, encoded)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func newAskCommand(container *app.Container) *cobra.Command {
	var flags identifyFlags

	cmd := &cobra.Command{
		Use:   "ask <medicine name or question>",
		Short: "Look up a medicine by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runIdentification(cmd, flags, container, func(ctx context.Context) (domain.MedicineRecord, error) {
				return container.IdentifyService.IdentifyByText(ctx, query)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func runIdentification(cmd *cobra.Command, flags identifyFlags, container *app.Container, identify func(context.Context) (domain.MedicineRecord, error)) error {
	if container.IdentifyService == nil {
		return fmt.Errorf("identification service unavailable")
	}
	ctx := cmd.Context()
	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	spinner := NewSpinner(cmd.ErrOrStderr(), "Analyzing...")
	spinner.Start()
	record, err := identify(ctx)
	spinner.Stop()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(record)
	}
	if container.MockMode {
		fmt.Fprintln(out, "Note: no API key configured, showing sample data")
	}
	helpers.RenderRecord(out, record)
	return nil
}

func readImage(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read image from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return data, nil
}
