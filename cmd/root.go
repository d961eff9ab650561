// Package cmd holds the booking command line: the host API, the calendar
// tool server and the calendar MCP server.
package cmd

import (
	"context"
	"fmt"

	"go-booking-agent/core/cache"
	"go-booking-agent/core/config"
	"go-booking-agent/core/logger"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	envFile    string
	cfg        *config.Config
)

// SetVersion sets the version reported by `booking version` and the MCP server.
func SetVersion(version string) {
	appVersion = version
}

var rootCmd = &cobra.Command{
	Use:   "booking",
	Short: "Natural-language meeting booking with a confirmation gate",
	Long: `booking turns a free-text meeting request into a proposal, checks the
calendar, and only books after the caller returns a signed confirmation token.

Run "booking serve" for the host API and "booking calendar serve" for the
calendar tool server it calls.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(envFile)
		if err != nil {
			return err
		}
		if err := logger.Init(loaded.App.Env, loaded.App.LogLevel); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "booking %s\n", appVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openCache connects to Redis when REDIS_ENABLED is set. A nil cache is valid.
func openCache(ctx context.Context) (cache.Cache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	store, err := cache.NewRedisCache(ctx, cfg.Redis)
	if err != nil {
		logger.Error("Cmd:OpenCache:Error", "error", err)
		return nil, err
	}
	return store, nil
}
