package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var flagInitYes bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the Default config for the scraper",
	Long: `Create the Default config and make it active.

The mirror to scrape, the request rate, the traversal path and the
Cloudflare transport are asked for interactively. Flags given on the
command line (--base-url, --rps, --traversal, --cloudflare) become the
answers' defaults; --yes takes them without asking.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if path, err := config.ConfigPathByLabel(config.DefaultLabel); err == nil {
			fmt.Println("Configuration already exists at:")
			fmt.Println("  ", path)
			fmt.Println("Use `flamed config reset Default` to recreate it.")
			return nil
		}

		cfg := seedConfig()
		if !flagInitYes {
			if err := askScraperSettings(cfg); err != nil {
				return err
			}

			fmt.Println()
			fmt.Println("Default configuration:")
			cfg.Print()
			fmt.Println()

			if !confirm("Save and activate it") {
				fmt.Println("Aborted.")
				return nil
			}
		}

		path, err := config.InitDefaultConfig(cfg)
		if err != nil {
			return fmt.Errorf("failed to write config file: %w", err)
		}

		fmt.Println("Config created at:", path)
		fmt.Printf("This config is now active (label: %s).\n", config.DefaultLabel)
		return nil
	},
}

// seedConfig starts from the defaults with any scraper flags applied.
func seedConfig() *config.Config {
	cfg := config.DefaultConfig()
	if flagBaseURL != "" {
		cfg.BaseURL = strings.TrimRight(flagBaseURL, "/")
	}
	if flagRPS > 0 {
		cfg.RequestsPerSecond = flagRPS
	}
	if flagTraversal != "" {
		cfg.TraversalPath = strings.Trim(flagTraversal, "/")
	}
	cfg.CloudflareTransport = cfg.CloudflareTransport || flagCloudflare
	return cfg
}

func askScraperSettings(cfg *config.Config) error {
	base, err := (&promptui.Prompt{
		Label:    "Site base URL",
		Default:  cfg.BaseURL,
		Validate: validateSiteURL,
	}).Run()
	if err != nil {
		return errors.New("init cancelled")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(base), "/")

	rps, err := (&promptui.Prompt{
		Label:    "Requests per second",
		Default:  strconv.FormatFloat(cfg.RequestsPerSecond, 'g', -1, 64),
		Validate: validatePositiveFloat,
	}).Run()
	if err != nil {
		return errors.New("init cancelled")
	}
	cfg.RequestsPerSecond, _ = strconv.ParseFloat(rps, 64)

	traversal, err := (&promptui.Prompt{
		Label:   "Traversal path (blank to use the site root)",
		Default: cfg.TraversalPath,
	}).Run()
	if err != nil {
		return errors.New("init cancelled")
	}
	cfg.TraversalPath = strings.Trim(strings.TrimSpace(traversal), "/")

	cfg.CloudflareTransport = confirm("Use the Cloudflare-friendly transport")
	return nil
}

func init() {
	configInitCmd.Flags().BoolVarP(&flagInitYes, "yes", "y", false, "accept the defaults without prompting")
	configCmd.AddCommand(configInitCmd)
}
