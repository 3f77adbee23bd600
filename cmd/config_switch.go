package cmd

import (
	"fmt"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/spf13/cobra"
)

var configSwitchCmd = &cobra.Command{
	Use:   "switch [label]",
	Short: "Switch the scraper to another profile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		}

		c, err := pickProfile(label, "Scrape with")
		if err != nil {
			return err
		}
		if c.Err != "" {
			return fmt.Errorf("config %q is unreadable: %s", c.Label, c.Err)
		}

		if err := config.SwitchConfig(c.Label); err != nil {
			return err
		}

		fmt.Printf("Switched to %s (%s)\n", c.Label, c.BaseURL)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSwitchCmd)
}
