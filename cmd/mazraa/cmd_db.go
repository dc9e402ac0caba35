package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/mazraa/config"
	"github.com/shashiranjanraj/mazraa/database/seeders"
	"github.com/shashiranjanraj/mazraa/internal/server"
	"github.com/shashiranjanraj/mazraa/pkg/database"
	"github.com/shashiranjanraj/mazraa/pkg/migration"

	_ "github.com/shashiranjanraj/mazraa/database/migrations"
)

// bootDB loads config and opens the database connection.
func bootDB() error {
	if err := config.Load(); err != nil {
		return err
	}
	return database.Connect()
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		ran, err := migration.New(database.DB).Run()
		if err != nil {
			return err
		}
		if len(ran) == 0 {
			fmt.Println("Nothing to migrate.")
			return nil
		}
		for _, name := range ran {
			fmt.Println("Migrated:", name)
		}
		return nil
	},
}

var migrateRollbackCmd = &cobra.Command{
	Use:   "migrate:rollback",
	Short: "Rollback the last batch of migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		rolled, err := migration.New(database.DB).Rollback()
		if err != nil {
			return err
		}
		if len(rolled) == 0 {
			fmt.Println("Nothing to rollback.")
			return nil
		}
		for _, name := range rolled {
			fmt.Println("Rolled back:", name)
		}
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "migrate:status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootDB(); err != nil {
			return err
		}
		defer database.Close()

		list, err := migration.New(database.DB).Status()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "RAN\tBATCH\tMIGRATION")
		for _, s := range list {
			ran, batch := "No", "-"
			if s.Ran {
				ran, batch = "Yes", fmt.Sprint(s.Batch)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", ran, batch, s.Name)
		}
		return w.Flush()
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run every registered seeder against the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		a, err := server.Boot(ctx)
		if err != nil {
			return err
		}
		defer a.Close(ctx)

		fmt.Println("Running seeders:", seeders.Names())
		return seeders.RunAll(ctx, a.Services)
	},
}
