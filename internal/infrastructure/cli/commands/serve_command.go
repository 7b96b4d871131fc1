package commands

import (
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/doeshing/medetech-go/internal/app"
	"github.com/doeshing/medetech-go/internal/infrastructure/httpapi"
)

// NewServeCommand creates the command that exposes the JSON API.
func NewServeCommand(container *app.Container) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve identification and history over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = container.Config.Server.Addr
			}
			listener, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", listener.Addr())
			router := httpapi.NewRouter(httpapi.Dependencies{
				Identifier: container.IdentifyService,
				History:    container.HistoryStore,
				Doctor:     container.DoctorService,
				Logger:     container.Logger,
			})
			return httpapi.Serve(ctx, listener, router, container.Logger)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config server.addr)")
	return cmd
}
