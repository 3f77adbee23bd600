package cmd

import (
	"fmt"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/spf13/cobra"
)

var flagResetKeepAuth bool

var configResetCmd = &cobra.Command{
	Use:   "reset [label]",
	Short: "Reset a profile (the active one by default) to the scraper defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			var err error
			if label, err = config.CurrentLabel(); err != nil {
				return err
			}
		}

		path, err := config.ResetConfig(label, flagResetKeepAuth)
		if err != nil {
			return err
		}

		fmt.Printf("Reset %s: %s\n", label, path)
		if flagResetKeepAuth {
			fmt.Println("User agent and cookies were kept.")
		}
		return nil
	},
}

func init() {
	configResetCmd.Flags().BoolVar(&flagResetKeepAuth, "keep-auth", false, "keep user_agent, cookie and cookie_file")
	configCmd.AddCommand(configResetCmd)
}
