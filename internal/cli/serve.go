package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newServeCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := NewApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			log.Info().
				Int("port", cfg.HTTP.Port).
				Str("provider", cfg.Provider.Mode).
				Str("ratelimit", cfg.RateLimit.Backend).
				Msg("starting chatgate")

			errCh := make(chan error, 1)
			go func() {
				addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
				if err := app.Server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
			}

			log.Info().Msg("shutting down chatgate")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := app.Server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("failed to shutdown server gracefully")
			}
			log.Info().Msg("chatgate stopped")
			return nil
		},
	}
}
