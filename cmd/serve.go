package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/vidsum/api"
	"github.com/killallgit/vidsum/api/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long: `Start the vidsum API server with the configured settings.

The server lists recorded videos and runs the summarization pipeline for
URLs posted to /api/v1/videos. Stale audio leftovers are swept in the
background while it runs.

Example:
  vidsum serve
  vidsum serve --port 9090
  vidsum serve --host 0.0.0.0 --port 8080`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "", "server host (overrides config)")
	serveCmd.Flags().Int("port", 0, "server port (overrides config)")
}

func runServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()
	logger := zerolog.Ctx(ctx)

	app, err := openApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	host, _ := cmd.Flags().GetString("host")
	if host == "" {
		host = app.cfg.Server.Host
	}
	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = app.cfg.Server.Port
	}

	if app.cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	address := fmt.Sprintf("%s:%d", host, port)
	server := api.NewServer(api.ServerOptions{
		Address:        address,
		ReadTimeout:    app.cfg.Server.ReadTimeout,
		WriteTimeout:   app.cfg.Server.WriteTimeout,
		MaxHeaderBytes: app.cfg.Server.MaxHeaderBytes,
	})
	server.SetDependencies(&types.Dependencies{
		DB:           app.db,
		VideoService: app.videos,
		Processor:    app.processor,
		Version:      Version,
	})
	server.Initialize()

	if app.cfg.Storage.MaxTempAge > 0 {
		app.cleanup.Start(ctx, app.cfg.Storage.MaxTempAge/2)
		defer app.cleanup.Stop()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
	}()

	logger.Info().Str("address", address).Msg("server is ready to handle requests")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down server")
	case runErr = <-serverErr:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
		return err
	}

	logger.Info().Msg("server gracefully stopped")
	return runErr
}
