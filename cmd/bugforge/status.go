package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"bugforge/internal/config"
	"bugforge/internal/db"
	"bugforge/internal/logger"
	"bugforge/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database statistics",
	Long:  `Displays a dashboard of the stored proxies: totals, validity, source and country breakdowns.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		db.Migrate(database)

		var totalProxies, validProxies, checkedProxies int64
		database.Model(&model.Proxy{}).Count(&totalProxies)
		database.Model(&model.Proxy{}).Where("valid = ?", true).Count(&validProxies)
		database.Model(&model.Proxy{}).Where("checked_at > '0001-01-01 00:00:00'").Count(&checkedProxies)

		type nameStat struct {
			Name  string
			Count int
		}
		var sourceStats []nameStat
		database.Model(&model.Proxy{}).
			Select("source as name, count(*) as count").
			Group("source").
			Order("count desc").
			Scan(&sourceStats)

		var countryStats []nameStat
		database.Model(&model.Proxy{}).
			Select("country as name, count(*) as count").
			Where("country != ''").
			Group("country").
			Order("count desc").
			Limit(5).
			Scan(&countryStats)

		dbSize := getFileSize(cfg.Database.Path)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

		fmt.Println("\n📊 \033[1mBUGFORGE STATUS DASHBOARD\033[0m")
		fmt.Println("────────────────────────────────────────")

		fmt.Fprintln(w, "\033[1;36m[ SYSTEM ]\033[0m\t")
		fmt.Fprintf(w, "  Database Path:\t%s\n", cfg.Database.Path)
		fmt.Fprintf(w, "  DB Size:\t%s\n", formatBytes(dbSize))
		fmt.Fprintf(w, "  Total Proxies:\t%d\n", totalProxies)
		fmt.Fprintf(w, "  Checked:\t%d\n", checkedProxies)
		fmt.Fprintf(w, "  Valid:\t%d\n", validProxies)
		fmt.Fprintln(w, "\t")

		fmt.Fprintln(w, "\033[1;36m[ SOURCES ]\033[0m\t")
		if len(sourceStats) == 0 {
			fmt.Fprintln(w, "  (empty)")
		} else {
			for _, s := range sourceStats {
				fmt.Fprintf(w, "  %s:\t%d\n", s.Name, s.Count)
			}
		}
		fmt.Fprintln(w, "\t")

		fmt.Fprintln(w, "\033[1;36m[ TOP LOCATIONS ]\033[0m\t")
		for _, c := range countryStats {
			fmt.Fprintf(w, "  %s %s:\t%d\n", getFlagEmoji(c.Name), c.Name, c.Count)
		}

		w.Flush()
		fmt.Println("")
	},
}

func getFileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func getFlagEmoji(countryCode string) string {
	if len(countryCode) != 2 {
		return "🌐"
	}
	countryCode = strings.ToUpper(countryCode)
	return string(rune(countryCode[0])+127397) + string(rune(countryCode[1])+127397)
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
