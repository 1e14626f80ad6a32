package cli

import (
	"github.com/spf13/cobra"

	"github.com/homebardev/homebar/internal/server"
	"github.com/homebardev/homebar/internal/ui"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recommendations and the user state over HTTP",
	Long: `Start a JSON API over the drink cache and your user state. Other homebar
installs can use it as their backing store with store.backend: http.`,
	Example: `  homebar serve
  homebar serve --addr 0.0.0.0:8787`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := server.New(a.sess, server.Options{
			Addr:        addr,
			RateLimit:   a.cfg.Server.RateLimit,
			RateBurst:   a.cfg.Server.RateBurst,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			Version:     version,
		}, a.logger)

		ui.Info("Listening on http://" + addr)
		return srv.Run(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
