package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"bugforge/internal/checker"
	"bugforge/internal/config"
	"bugforge/internal/db"
	"bugforge/internal/logger"
	"bugforge/internal/model"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	flagCheckBatch   int
	flagCheckTimeout time.Duration
	flagCheckCountry string
	flagCheckReport  bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate stored proxies against the liveness endpoint",
	Long:  `Run bounded-batch liveness checks. Each proxy is probed once with its own timeout; validity is persisted. Ctrl-C keeps the results accumulated so far.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		if flagCheckBatch > 0 {
			cfg.Checker.BatchSize = flagCheckBatch
		}
		if flagCheckTimeout > 0 {
			cfg.Checker.Timeout = flagCheckTimeout
		}

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		db.Migrate(database)

		query := database.Model(&model.Proxy{})
		if flagCheckCountry != "" {
			query = query.Where("country = ?", flagCheckCountry)
		}

		var candidates []model.Proxy
		if err := query.Find(&candidates).Error; err != nil {
			logger.Log.Fatalf("Failed to fetch candidates: %v", err)
		}
		if len(candidates) == 0 {
			logger.Log.Error("❌ No proxies to check. Run 'collect' first.")
			return
		}

		logger.Log.Infof("🔎 Checking %d proxies (batch size %d)...", len(candidates), cfg.Checker.BatchSize)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		bar := progressbar.NewOptions(len(candidates),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(15),
			progressbar.OptionSetDescription("[cyan]Checking...[reset]"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)

		chk := checker.New(checker.Config{
			BaseURL:   cfg.Checker.BaseURL,
			Timeout:   cfg.Checker.Timeout,
			BatchSize: cfg.Checker.BatchSize,
		})

		valid := chk.Run(ctx, candidates, func(p checker.Progress) {
			bar.Add(1)
			bar.Describe(fmt.Sprintf("[cyan]Valid: %d[reset]", p.Valid))
			database.Model(&model.Proxy{}).
				Where("hash = ?", p.Proxy.Hash).
				Updates(map[string]interface{}{"valid": p.OK, "checked_at": p.Proxy.CheckedAt})
		})

		bar.Finish()
		fmt.Print("\n")

		if ctx.Err() != nil {
			logger.Log.Warnf("⏹️  Cancelled. Keeping %d valid proxies found so far.", len(valid))
		} else {
			logger.Log.Infof("✅ Check complete. Valid: %d/%d", len(valid), len(candidates))
		}

		if flagCheckReport {
			chk.Metrics.PrintReport(cfg.Checker.Timeout, cfg.Checker.BatchSize)
		}
	},
}

func init() {
	checkCmd.Flags().IntVar(&flagCheckBatch, "batch", 0, "Override batch size")
	checkCmd.Flags().DurationVar(&flagCheckTimeout, "timeout", 0, "Override per-check timeout")
	checkCmd.Flags().StringVar(&flagCheckCountry, "country", "", "Only check proxies from this country")
	checkCmd.Flags().BoolVar(&flagCheckReport, "report", false, "Print latency/error metrics after the run")
	rootCmd.AddCommand(checkCmd)
}
