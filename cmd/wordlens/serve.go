package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/japaniel/wordlens/pkg/coordinator"
	"github.com/japaniel/wordlens/pkg/messaging"
	"github.com/japaniel/wordlens/pkg/page"
	"github.com/japaniel/wordlens/pkg/server"
)

func newServeCmd(a *app) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service with the reading proxy and popup API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			hub := messaging.NewHub()
			sessions := page.NewSessions(hub, a.fetcher(), a.store)
			coord := coordinator.New(a.store, a.translator(), hub, coordinator.Options{BadgeDuration: a.cfg.Badge.Duration})
			defer coord.Badge().Stop()
			menu := coordinator.NewMenu()
			if err := coord.Install(menu); err != nil {
				return err
			}

			srv := server.New(server.Deps{
				Store:       a.store,
				Coordinator: coord,
				Menu:        menu,
				Sessions:    sessions,
				Hub:         hub,
			}, a.cfg.Server)
			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides server.port)")
	return cmd
}
