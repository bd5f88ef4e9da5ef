package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ledger/internal/cli"
	"ledger/internal/log"
)

var (
	logLevel string
	logger   = log.Nop()
	rootCmd  = &cobra.Command{
		Use:   "ledgerctl",
		Short: "Administer a ledger database",
		Long: `ledgerctl runs migrations, issues API tokens and prints ledger reports
straight from the configured store. Settings come from the same environment
variables as the server (a .env file is honoured).`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cli.LoadEnvFile()
			if logLevel == "" {
				logLevel = os.Getenv("LOG_LEVEL")
			}
			logger = cli.SetupLogger(logLevel)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(filterCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
