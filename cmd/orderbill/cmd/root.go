// Package cmd provides the orderbill CLI commands.
package cmd

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/orderbill/internal/config"
	"github.com/smallbiznis/orderbill/internal/logger"
	"github.com/smallbiznis/orderbill/internal/migration"
	"github.com/smallbiznis/orderbill/internal/server"
	"github.com/smallbiznis/orderbill/pkg/db"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var nodeID int64

var rootCmd = &cobra.Command{
	Use:   "orderbill",
	Short: "Price fulfilled orders into customer billing reports",
	Long: `orderbill applies each customer's service assignments and pricing rules
to their orders and produces itemised billing reports.

Examples:
  orderbill serve
  orderbill report generate --customer 1 --start 2024-01-01 --end 2024-01-31
  orderbill report generate --customer 1 --start 2024-01-01 --end 2024-01-31 --format csv`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Int64Var(&nodeID, "node-id", 1, "snowflake node id for generated ids")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
}

// coreOptions wires configuration, storage and the domain services.
func coreOptions() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		fx.Provide(registerSnowflake),
		db.Module,
		migration.Module,
		server.Services,
	)
}

func registerSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(nodeID)
}
