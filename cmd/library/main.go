package main

import (
	stdLog "log"
	"os"
	"time"

	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/app"
	"github.com/bohdan-yatsyna/Nearby-Lib-API/library/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

// @title Library borrowing API
// @version 1.0
// @description Book catalog, borrowings and payments.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

var (
	storage string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:          "library",
	Short:        "Library borrowing service",
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			stdLog.Fatal("load envs from .env ", err)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, the overdue worker and the payment ledger consumer",
	Run: func(*cobra.Command, []string) {
		cfg := newConfig(config.WithWriteTimeout(time.Minute))
		app.Run(&cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := newConfig()
		return app.Migrate(cmd.Context(), &cfg)
	},
}

var overdueCmd = &cobra.Command{
	Use:   "overdue",
	Short: "Notify about borrowings due by tomorrow once and exit",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := newConfig()
		found, err := app.CheckOverdue(cmd.Context(), &cfg)
		if err != nil {
			return err
		}
		cmd.Printf("overdue borrowings: %d\n", found)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&storage, "storage", "", "storage backend: postgres or sqlite (overrides STORAGE)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, overdueCmd, userCmd)
}

func newConfig(opts ...config.Option) config.Config {
	opts = append(opts, config.WithStorage(storage))
	if debug {
		opts = append(opts, config.WithLogLevel(zapcore.DebugLevel))
	}
	return config.NewConfig(opts...)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
