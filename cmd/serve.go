package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/a11ytabs/internal/preview"
	"github.com/conneroisu/a11ytabs/internal/websocket"
)

func (a *app) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve <file.html>",
		Short: "Preview an HTML file with live tab widgets",
		Long: `Serve an HTML file with every tab container annotated. Clicks and arrow keys
in the browser are forwarded to the widgets over a websocket, and the page
reloads when the file changes.

Examples:
  a11ytabs serve page.html                 # http://localhost:8080
  a11ytabs serve page.html --port 3000     # Custom port
  a11ytabs serve page.html --watch=false   # Disable reload on change`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := a.load(cmd)
			if err != nil {
				return err
			}
			cfg.TargetFiles = args

			srv, err := preview.New(preview.Options{
				Source:         args[0],
				Mount:          cfg.MountOptions(logger),
				AllowedOrigins: cfg.Server.AllowedOrigins,
				Watch:          cfg.Watch.Enabled,
				Debounce:       cfg.Watch.Debounce,
				Limits:         websocket.DefaultLimits(),
				Logger:         logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Previewing %s at http://%s\n", args[0], cfg.Address())
			return srv.ListenAndServe(ctx, cfg.Address())
		},
	}

	cmd.Flags().IntP("port", "p", 0, "port to serve on (default 8080)")
	cmd.Flags().String("host", "", "host to bind to (default localhost)")
	cmd.Flags().Bool("watch", true, "reload the page when the file changes")
	bindFlags(a.v, cmd.Flags(), map[string]string{
		"server.port":   "port",
		"server.host":   "host",
		"watch.enabled": "watch",
	})
	return cmd
}
