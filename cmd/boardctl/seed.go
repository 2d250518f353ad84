package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed [dev|test|clean]",
	Short: "Seed the database with fake data",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := "dev"
		if len(args) > 0 {
			mode = args[0]
		}

		if err := database.Migrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		seeder := seed.NewSeeder(database.DB)
		switch mode {
		case "dev":
			if err := seeder.SeedDev(); err != nil {
				return err
			}
		case "test":
			if err := seeder.SeedTest(); err != nil {
				return err
			}
		case "clean":
			if err := seeder.Clean(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown seed mode %q (want dev, test or clean)", mode)
		}

		fmt.Println("✓ Seeding completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
