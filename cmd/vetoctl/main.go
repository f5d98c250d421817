package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/veto-backend/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vetoctl",
		Short: "Administer the map veto backend",
		Long: `vetoctl manages the veto database directly: schema migration, the
official map pool seed, and series inspection.`,
		SilenceUsage: true,
	}
	cli.AddDatabaseFlags(rootCmd)

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.SeedCmd())
	rootCmd.AddCommand(cli.SeriesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
