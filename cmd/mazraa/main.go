// Command mazraa runs the El Mazraa storefront and its maintenance tasks.
//
//	mazraa serve              # HTTP (+ gRPC health when GRPC_PORT is set)
//	mazraa migrate            # apply pending migrations (database store)
//	mazraa migrate:rollback
//	mazraa migrate:status
//	mazraa seed               # run every registered seeder
//	mazraa route:list
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "mazraa",
	Short:         "El Mazraa storefront server",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)
}
