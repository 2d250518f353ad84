package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/models"
)

var pruneOlderThanDays int

var pruneNotificationsCmd = &cobra.Command{
	Use:   "prune-notifications",
	Short: "Delete read notifications older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff := time.Now().AddDate(0, 0, -pruneOlderThanDays)

		result := database.DB.
			Where("read = ? AND created_at < ?", true, cutoff).
			Delete(&models.Notification{})
		if result.Error != nil {
			return fmt.Errorf("failed to prune notifications: %w", result.Error)
		}

		fmt.Printf("✓ Deleted %d read notifications older than %d days\n",
			result.RowsAffected, pruneOlderThanDays)
		return nil
	},
}

func init() {
	pruneNotificationsCmd.Flags().IntVar(&pruneOlderThanDays, "older-than", 90, "Retention window in days")
}
