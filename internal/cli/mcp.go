package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	detectivemcp "github.com/valter-silva-au/lemon-detective/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the detective MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the detective MCP server on stdio",
	Long: `Start the detective MCP server on stdio transport.

The server exposes the question rules and gameplay metrics as MCP tools:
validate_question, pick_fallback, infer_trait, check_guess, get_metrics,
get_alerts. None of them call the language model.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Engine == nil {
			return fmt.Errorf("engine not initialized")
		}

		srv := detectivemcp.NewServer(Engine, Filter, MetricsCalc, AlertEngine, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if Logger != nil {
			Logger.Info("mcp server starting", zap.String("version", appVersion))
		}
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
