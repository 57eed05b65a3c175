package main

import (
	"os"
	"os/signal"
	"syscall"

	"snapsearch/internal/di"
	"snapsearch/internal/infrastructure/env"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves /health, /api/upload-image and /metrics on HOST:PORT.

Settings come from the environment, .env and .env.<APP_ENV>. SIGINT or SIGTERM
stops accepting requests and waits SHUTDOWN_TIMEOUT_MS for in-flight searches,
then cancels them and waits for their browser sessions to close.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings := env.LoadSettings(env.NewEnvService())

	container, err := di.NewContainer(di.Config{Settings: settings})
	if err != nil {
		return err
	}
	defer container.Close()

	if settings.BrowserEndpoint == "" {
		container.Logger.Warn("BROWSER_WS_ENDPOINT is not set; every search will fail with ConnectFailed")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return container.Server.Run(ctx)
}
