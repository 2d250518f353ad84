package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/models"
)

var revokeAdmin bool

var promoteAdminCmd = &cobra.Command{
	Use:   "promote-admin <email>",
	Short: "Grant (or revoke with --revoke) admin privileges for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := args[0]

		var user models.User
		err := database.DB.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("user not found: %s", email)
		}
		if err != nil {
			return err
		}

		if revokeAdmin {
			if !user.IsAdmin {
				fmt.Printf("⚠️  User %s is not an admin\n", user.Username)
				return nil
			}
			if err := database.DB.Model(&user).UpdateColumn("is_admin", false).Error; err != nil {
				return fmt.Errorf("failed to revoke admin privileges: %w", err)
			}
			fmt.Printf("✓ Admin privileges revoked for %s (%s)\n", user.Username, user.Email)
			return nil
		}

		if user.IsAdmin {
			fmt.Printf("⚠️  User %s is already an admin\n", user.Username)
			return nil
		}
		if err := database.DB.Model(&user).UpdateColumn("is_admin", true).Error; err != nil {
			return fmt.Errorf("failed to grant admin privileges: %w", err)
		}
		fmt.Printf("✓ Admin privileges granted to %s (%s)\n", user.Username, user.Email)
		fmt.Println("  The user must log out and log back in for changes to take effect")
		return nil
	},
}

func init() {
	promoteAdminCmd.Flags().BoolVar(&revokeAdmin, "revoke", false, "Revoke admin privileges instead of granting")
}
