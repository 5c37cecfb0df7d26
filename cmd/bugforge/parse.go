package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"bugforge/internal/encode"
	"bugforge/internal/gen"
	"bugforge/internal/link"
	"bugforge/internal/logger"

	"github.com/spf13/cobra"
)

var (
	flagParseServer   string
	flagParseWildcard bool
	flagParseFormat   string
)

var parseCmd = &cobra.Command{
	Use:   "parse <link>",
	Short: "Decode an existing share link",
	Long: `Parse a vmess/vless/trojan/ss link into its fields. With --server the
connection address is replaced (wildcard mode also rewrites SNI/Host); with
--format the link is re-encoded in another output format.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parsed, err := link.Parse(args[0])
		if err != nil {
			logger.Log.Fatalf("❌ %v", err)
		}

		link.ApplyMask(parsed, flagParseServer, flagParseWildcard)

		if flagParseFormat != "" {
			encoder, err := encode.Get(flagParseFormat)
			if err != nil {
				logger.Log.Fatalf("❌ %v (available: %v)", err, encode.Formats())
			}
			payload, err := encoder.Encode([]gen.LinkParams{parsed.Params()}, gen.Options{})
			if err != nil {
				logger.Log.Fatalf("Encoding failed: %v", err)
			}
			fmt.Println(payload)
			return
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Protocol:\t%s\n", parsed.Protocol)
		fmt.Fprintf(w, "Remark:\t%s\n", parsed.Remark)
		fmt.Fprintf(w, "Server:\t%s\n", parsed.Server)
		fmt.Fprintf(w, "Port:\t%d\n", parsed.Port)
		fmt.Fprintf(w, "Secret:\t%s\n", parsed.Secret())
		if parsed.Cipher != "" {
			fmt.Fprintf(w, "Cipher:\t%s\n", parsed.Cipher)
		}
		fmt.Fprintf(w, "TLS:\t%v\n", parsed.TLS)
		fmt.Fprintf(w, "SNI:\t%s\n", parsed.SNI)
		fmt.Fprintf(w, "Network:\t%s\n", parsed.Network)
		fmt.Fprintf(w, "WS Path:\t%s\n", parsed.WSPath)
		fmt.Fprintf(w, "WS Host:\t%s\n", parsed.WSHost)
		w.Flush()
	},
}

func init() {
	parseCmd.Flags().StringVar(&flagParseServer, "server", "", "Replace the connection address")
	parseCmd.Flags().BoolVar(&flagParseWildcard, "wildcard", false, "Wildcard mode: also prefix SNI/Host with the new server")
	parseCmd.Flags().StringVar(&flagParseFormat, "format", "", "Re-encode in this format instead of dumping fields")
	rootCmd.AddCommand(parseCmd)
}
