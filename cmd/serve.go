package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go-booking-agent/core/completion"
	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/core/server"
	"go-booking-agent/modules/booking"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the host API",
	Long: `Start the host API: /a2a/plan, /a2a/confirm, /a2a/dry-run, /chat and /health.

Requires SIGNING_KEY and a completion provider (API_KEY for openai,
GEMINI_API_KEY for gemini). Calendar calls go to MCP_CAL_URL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Security.SigningKey == "" {
			return errors.NewAppError(errors.ErrConfiguration, "SIGNING_KEY is required", nil)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		llm, err := completion.New(ctx, cfg.Completion)
		if err != nil {
			return err
		}
		if closer, ok := llm.(io.Closer); ok {
			defer closer.Close()
		}

		store, err := openCache(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		e := server.New()
		booking.Init(e, cfg, llm, store)

		logger.Info("Cmd:Serve:Starting", "addr", cfg.ServerAddr(), "tools", cfg.Tools.URL, "provider", cfg.Completion.Provider)
		return server.Run(ctx, e, cfg.ServerAddr())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
