package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/buzzboard/backend/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := database.Migrate(); err != nil {
			return err
		}
		fmt.Println("✓ Migrations completed")
		return nil
	},
}
