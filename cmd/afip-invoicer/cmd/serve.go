package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rezonia/afip-invoicer/internal/logger"
	"github.com/rezonia/afip-invoicer/internal/server"
)

var (
	serverAddr  string
	serverDebug bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server in front of one issuer CUIT.

The API provides endpoints for:
  - POST /api/v1/receipts                            - Authorize a receipt
  - GET  /api/v1/receipts/:identifier                - Read a receipt back
  - GET  /api/v1/receipts/:identifier/code           - Barcode number and SVG
  - GET  /api/v1/points-of-sale/:pos/types/:type/last - Latest receipts
  - GET  /api/v1/session                             - Cached session state
  - GET  /health                                     - Health check

Requests to /api/v1 require an HS256 bearer token when AFIP_JWT_SECRET is set.

Examples:
  # Start server on default port
  afip-invoicer serve

  # Start on custom port in debug mode
  afip-invoicer serve --address :9090 --debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Server listen address (env: AFIP_SERVER_ADDRESS)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	setupCtx, cancel := context.WithTimeout(ctx, commandTimeout(0))
	client, err := newInvoicer(setupCtx)
	cancel()
	if err != nil {
		return err
	}
	defer client.Close()

	address := cfg.Server.Address
	if serverAddr != "" {
		address = serverAddr
	}

	config := &server.Config{
		Address:           address,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		Debug:             serverDebug,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		RequestsPerMinute: cfg.Server.RequestsPerMin,
		JWTSecret:         cfg.Server.JWTSecret,
	}

	srv := server.NewServer(config, client.Backend(),
		server.WithCredentialStore(client.sessions),
		server.WithLogger(logger.WithComponent("server")),
	)

	log := logger.WithComponent("serve")
	log.Info().
		Str("address", address).
		Str("cuit", client.CUIT()).
		Str("environment", client.Environment().Name).
		Bool("auth", config.JWTSecret != "").
		Msg("starting server")

	return srv.Run(ctx)
}
