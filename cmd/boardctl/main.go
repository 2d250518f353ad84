// boardctl is the operator CLI for a Buzzboard deployment: migrations,
// admin promotion and housekeeping tasks that should not live in the server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/buzzboard/backend/internal/database"
)

var rootCmd = &cobra.Command{
	Use:   "boardctl",
	Short: "Buzzboard operations CLI",
	Long: `boardctl provides command-line access to Buzzboard maintenance tasks:
database migrations, admin account management and data housekeeping.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		if err := database.Initialize(os.Getenv("DATABASE_URL")); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = database.Close()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(promoteAdminCmd)
	rootCmd.AddCommand(pruneNotificationsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
