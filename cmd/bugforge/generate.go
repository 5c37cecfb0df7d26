package main

import (
	"errors"
	"os"

	"bugforge/internal/config"
	"bugforge/internal/db"
	"bugforge/internal/encode"
	"bugforge/internal/gen"
	"bugforge/internal/ingest"
	"bugforge/internal/logger"
	"bugforge/internal/mask"
	"bugforge/internal/model"
	"bugforge/internal/publishers"

	"github.com/spf13/cobra"
)

var (
	flagGenProtocol   string
	flagGenFormat     string
	flagGenUUID       string
	flagGenBugType    string
	flagGenMainDomain string
	flagGenBugs       string
	flagGenPath       string
	flagGenNoTLS      bool
	flagGenCountry    string
	flagGenLimit      int
	flagGenValidOnly  bool
	flagGenShuffle    bool
	flagGenInput      string
	flagGenOutput     string

	flagGenFull        bool
	flagGenFakeIP      bool
	flagGenAdBlock     bool
	flagGenPornBlock   bool
	flagGenBestPing    bool
	flagGenLoadBalance bool
	flagGenFallback    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate proxy configs from stored or raw proxy lists",
	Long: `Select proxies, derive masked connection parameters per bug host, and
render them as share URIs, a Clash document, or a generic outbound config.
Proxies come from the database unless --input points at a raw list file.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		mainDomain := flagGenMainDomain
		if mainDomain == "" {
			mainDomain = cfg.Generator.MainDomain
		}
		if mainDomain == "" {
			logger.Log.Fatal("A main domain is required (--main-domain or generator.main_domain)")
		}

		uuid := flagGenUUID
		if uuid == "" {
			uuid = cfg.Generator.UUID
		}
		pathTemplate := flagGenPath
		if pathTemplate == "" {
			pathTemplate = cfg.Generator.PathTemplate
		}

		proxies, err := loadProxies(cfg)
		if err != nil {
			logger.Log.Fatalf("Error loading proxies: %v", err)
		}
		if len(proxies) == 0 {
			logger.Log.Error("❌ No proxies loaded. Run 'collect' or pass --input.")
			return
		}

		opts := gen.Options{
			Protocol:      gen.Protocol(flagGenProtocol),
			Format:        flagGenFormat,
			UUID:          uuid,
			BugType:       mask.BugType(flagGenBugType),
			MainDomain:    mainDomain,
			CustomBugs:    flagGenBugs,
			PathTemplate:  pathTemplate,
			TLS:           !flagGenNoTLS,
			CountryFilter: flagGenCountry,
			ValidOnly:     flagGenValidOnly,
			Shuffle:       flagGenShuffle,
			Limit:         flagGenLimit,
			Clash: gen.ClashOptions{
				FullConfig:  flagGenFull,
				FakeIP:      flagGenFakeIP,
				AdBlock:     flagGenAdBlock,
				PornBlock:   flagGenPornBlock,
				BestPing:    flagGenBestPing,
				LoadBalance: flagGenLoadBalance,
				Fallback:    flagGenFallback,
			},
		}

		session := gen.NewSession(proxies, opts)
		if err := session.Filter(); err != nil {
			if errors.Is(err, gen.ErrNoMatches) {
				logger.Log.Errorf("❌ %v", err)
				return
			}
			logger.Log.Fatalf("Filter failed: %v", err)
		}

		entries := session.Synthesize()

		encoder, err := encode.Get(opts.Format)
		if err != nil {
			logger.Log.Fatalf("❌ %v (available: %v)", err, encode.Formats())
		}

		payload, err := encoder.Encode(entries, session.Options)
		if err != nil {
			logger.Log.Fatalf("Encoding failed: %v", err)
		}
		if payload == "" {
			logger.Log.Error("❌ Nothing to output: all entries were skipped.")
			return
		}

		pubName := "stdout"
		pubParams := map[string]interface{}{}
		if flagGenOutput != "" {
			pubName = "file"
			pubParams["path"] = flagGenOutput
		}
		publisher, err := publishers.Get(pubName)
		if err != nil {
			logger.Log.Fatalf("Publisher not found: %v", err)
		}
		if err := publisher.Publish(payload, pubParams); err != nil {
			logger.Log.Fatalf("Publish failed: %v", err)
		}

		logger.Log.Infof("✅ Generated %d links from %d proxies.", len(entries), len(session.Proxies))
	},
}

func loadProxies(cfg *config.Config) ([]model.Proxy, error) {
	if flagGenInput != "" {
		data, err := os.ReadFile(flagGenInput)
		if err != nil {
			return nil, err
		}
		proxies, err := ingest.Ingest(string(data))
		if err != nil {
			return nil, err
		}
		return proxies, nil
	}

	database, err := db.Connect(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close(database)
	db.Migrate(database)

	var proxies []model.Proxy
	if err := database.Find(&proxies).Error; err != nil {
		return nil, err
	}
	return proxies, nil
}

func init() {
	generateCmd.Flags().StringVar(&flagGenProtocol, "protocol", "mix", "vmess, vless, trojan, shadowsocks or mix")
	generateCmd.Flags().StringVar(&flagGenFormat, "format", "uri", "Output format: uri, clash or singbox")
	generateCmd.Flags().StringVar(&flagGenUUID, "uuid", "", "UUID / password (random when empty)")
	generateCmd.Flags().StringVar(&flagGenBugType, "bug-type", "default", "Masking strategy: default, non-wildcard or wildcard")
	generateCmd.Flags().StringVar(&flagGenMainDomain, "main-domain", "", "Main tunnel domain")
	generateCmd.Flags().StringVar(&flagGenBugs, "bugs", "", "Comma-separated bug hosts (non-wildcard/wildcard only)")
	generateCmd.Flags().StringVar(&flagGenPath, "path", "", "Websocket path template, {ip} and {port} are substituted")
	generateCmd.Flags().BoolVar(&flagGenNoTLS, "no-tls", false, "Emit plaintext (port 80) links")
	generateCmd.Flags().StringVar(&flagGenCountry, "country", "", "Country filter (ISO code)")
	generateCmd.Flags().IntVar(&flagGenLimit, "limit", 10, "Max proxies used (1-50)")
	generateCmd.Flags().BoolVar(&flagGenValidOnly, "valid-only", false, "Only use proxies that passed a check")
	generateCmd.Flags().BoolVar(&flagGenShuffle, "shuffle", false, "Shuffle before applying the limit")
	generateCmd.Flags().StringVar(&flagGenInput, "input", "", "Raw proxy list file (bypasses the database)")
	generateCmd.Flags().StringVarP(&flagGenOutput, "output", "o", "", "Write output to file instead of stdout")

	generateCmd.Flags().BoolVar(&flagGenFull, "full", false, "Clash: emit a complete client config")
	generateCmd.Flags().BoolVar(&flagGenFakeIP, "fake-ip", false, "Clash: fake-ip DNS mode")
	generateCmd.Flags().BoolVar(&flagGenAdBlock, "adblock", false, "Clash: append the ad rule provider")
	generateCmd.Flags().BoolVar(&flagGenPornBlock, "pornblock", false, "Clash: append the porn rule provider")
	generateCmd.Flags().BoolVar(&flagGenBestPing, "best-ping", false, "Clash: add a Best Ping url-test group")
	generateCmd.Flags().BoolVar(&flagGenLoadBalance, "load-balance", false, "Clash: add a Load Balance group")
	generateCmd.Flags().BoolVar(&flagGenFallback, "fallback-group", false, "Clash: add a Fallback group")

	rootCmd.AddCommand(generateCmd)
}
