package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
	flagJSON         bool

	// site/transport
	flagBaseURL    string
	flagTraversal  string
	flagRPS        float64
	flagTimeout    int
	flagAttempts   int
	flagCloudflare bool

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
)

var rootCmd = &cobra.Command{
	Use:           "flamed",
	Short:         "Flame Scans scraper: series details, chapters, listings and update scans",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	pf.BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	pf.BoolVar(&flagJSON, "json", false, "print results as JSON")

	pf.StringVar(&flagBaseURL, "base-url", "", "site root, e.g. https://flamescans.org")
	pf.StringVar(&flagTraversal, "traversal", "", "series path prefix to start with (refreshed from the home page)")
	pf.Float64Var(&flagRPS, "rps", 0, "requests per second ceiling")
	pf.IntVar(&flagTimeout, "timeout", 0, "per-request timeout in seconds")
	pf.IntVar(&flagAttempts, "attempts", 0, "attempts per request, including the first")
	pf.BoolVar(&flagCloudflare, "cloudflare", false, "use the Cloudflare-friendly TLS transport")

	pf.StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"cf_clearance=...; other=123\"")
	pf.StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	pf.StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
