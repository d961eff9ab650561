package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-booking-agent/core/errors"
	"go-booking-agent/core/logger"
	"go-booking-agent/core/server"
	"go-booking-agent/modules/calendar"
	calendarMCP "go-booking-agent/modules/calendar/mcp"

	"github.com/spf13/cobra"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Calendar tool server commands",
}

var calendarServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the calendar tool server over HTTP",
	Long: `Start the calendar tool server: /tools/list, /tools/call, /oauth/start,
/oauth/callback and /health.

Requires GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and OAUTH_REDIRECT_URI. Tool
calls need GOOGLE_REFRESH_TOKEN, or a token stored by /oauth/callback when
REDIS_ENABLED is set. TOOLS_KEY is required and must accompany every tool
call as X-Tool-Key.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Tools.Key == "" {
			return errors.NewAppError(errors.ErrConfiguration, "TOOLS_KEY is required", nil)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := openCache(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		e := server.New()
		if err := calendar.Init(e, cfg, store); err != nil {
			return err
		}
		logger.Info("Cmd:CalendarServe:Starting", "addr", cfg.ToolServerAddr(), "calendar_id", cfg.GoogleAPI.CalendarID)
		return server.Run(ctx, e, cfg.ToolServerAddr())
	},
}

var calendarMCPCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the calendar tools over MCP on stdio",
	Long: `Serve calendar_check_availability and calendar_create_event as MCP tools
on stdin/stdout. Logs go to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		store, err := openCache(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		registry, _, err := calendar.NewTools(cfg, store)
		if err != nil {
			return err
		}

		if err := calendarMCP.NewServer(registry, appVersion).Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}
		return nil
	},
}

func init() {
	calendarCmd.AddCommand(calendarServeCmd, calendarMCPCmd)
	rootCmd.AddCommand(calendarCmd)
}
