package main

import (
	"errors"
	"strconv"
	"time"

	"bugforge/internal/config"
	"bugforge/internal/db"
	"bugforge/internal/geo"
	"bugforge/internal/ingest"
	"bugforge/internal/logger"
	"bugforge/internal/sources"

	"github.com/spf13/cobra"
	"gorm.io/gorm/clause"
)

var collectParams map[string]string

var collectCmd = &cobra.Command{
	Use:   "collect [source_names...]",
	Short: "Run sources to ingest proxy lists",
	Long:  `Fetch all sources defined in config, or specific ones by name, and store the ingested proxies. Use --param to override source parameters.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		if len(args) > 0 {
			cfg.FilterSources(args)
		}
		if len(cfg.Sources) == 0 {
			logger.Log.Warn("No sources matched the provided names.")
			return
		}

		for i := range cfg.Sources {
			if cfg.Sources[i].Params == nil {
				cfg.Sources[i].Params = make(map[string]interface{})
			}
			for k, v := range collectParams {
				if intVal, err := strconv.Atoi(v); err == nil {
					cfg.Sources[i].Params[k] = intVal
				} else {
					cfg.Sources[i].Params[k] = v
				}
			}
		}

		if err := geo.Init(cfg.Generator.GeoIPCountryPath); err != nil {
			logger.Log.Warnf("GeoIP unavailable, country backfill disabled: %v", err)
		}
		defer geo.Close()

		database, err := db.Connect(cfg.Database.Path)
		if err != nil {
			logger.Log.Fatalf("Error connecting to DB: %v", err)
		}
		defer db.Close(database)
		db.Migrate(database)

		for _, sCfg := range cfg.Sources {
			logger.Log.Infof("🏃 Running source: %s (%s)...", sCfg.Name, sCfg.Type)

			source, err := sources.Get(sCfg.Type)
			if err != nil {
				logger.Log.Warnf("Skipping: %v", err)
				continue
			}

			raw, err := source.Fetch(sCfg.Params)
			if err != nil {
				logger.Log.Errorf("Error fetching source: %v", err)
				continue
			}

			proxies, err := ingest.Ingest(raw)
			if err != nil {
				if errors.Is(err, ingest.ErrEmptySource) || errors.Is(err, ingest.ErrNoProxies) {
					logger.Log.Errorf("Source %s yielded nothing usable: %v", sCfg.Name, err)
					continue
				}
				logger.Log.Errorf("Ingest failed: %v", err)
				continue
			}
			ingest.FillCountries(proxies)

			now := time.Now()
			for i := range proxies {
				proxies[i].Source = sCfg.Name
				proxies[i].CreatedAt = now
				proxies[i].Hash = proxies[i].CalculateHash()
			}

			result := database.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "hash"}},
				DoNothing: true,
			}).CreateInBatches(proxies, 500)

			logger.Log.Infof("✅ Source %s finished. Stored %d of %d proxies.",
				sCfg.Name, result.RowsAffected, len(proxies))
		}
	},
}

func init() {
	collectCmd.Flags().StringToStringVarP(&collectParams, "param", "p", nil, "Override source params")
	rootCmd.AddCommand(collectCmd)
}
