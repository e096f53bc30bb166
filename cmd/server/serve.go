package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/devmarket/internal/server"
)

func serveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd.Context(), a.cfg, a.logger)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}

			srv, err := server.New(a.cfg, store, a.logger)
			if err != nil {
				_ = store.Close(cmd.Context())
				return fmt.Errorf("creating server: %w", err)
			}
			// Start closes the store on the way out.
			return srv.Start()
		},
	}
}
