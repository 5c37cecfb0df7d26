package main

import (
	"strconv"

	"bugforge/internal/config"
	"bugforge/internal/db"
	"bugforge/internal/logger"
	"bugforge/internal/model"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune [limit]",
	Short: "Shrink the database to a target size",
	Long: `Deletes proxies that failed their last check, then the oldest entries
until the total count matches the target. Without an argument the
'max_proxies' value from config.yaml is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		targetLimit := cfg.Database.MaxProxies
		if len(args) > 0 {
			val, err := strconv.Atoi(args[0])
			if err != nil {
				logger.Log.Fatalf("Invalid limit argument: %v", err)
			}
			targetLimit = val
			logger.Log.Infof("🎯 Pruning target manually set to: %d", targetLimit)
		}

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		db.Migrate(database)

		// Pass 1: drop proxies that were checked and failed.
		res := database.Where("checked_at > '0001-01-01 00:00:00' AND valid = ?", false).
			Delete(&model.Proxy{})
		if res.Error != nil {
			logger.Log.Fatalf("Pruning invalid proxies failed: %v", res.Error)
		}
		logger.Log.Infof("🗑️  Removed %d invalid proxies.", res.RowsAffected)

		// Pass 2: enforce the size cap, oldest first.
		var total int64
		database.Model(&model.Proxy{}).Count(&total)
		if targetLimit > 0 && total > int64(targetLimit) {
			excess := total - int64(targetLimit)
			res = database.Where("id IN (?)",
				database.Model(&model.Proxy{}).
					Select("id").
					Order("created_at ASC").
					Limit(int(excess)),
			).Delete(&model.Proxy{})
			if res.Error != nil {
				logger.Log.Fatalf("Pruning oldest proxies failed: %v", res.Error)
			}
			logger.Log.Infof("🗑️  Removed %d oldest proxies to meet the cap of %d.", res.RowsAffected, targetLimit)
		}

		logger.Log.Info("✅ Database maintenance complete.")
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
