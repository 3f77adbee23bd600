package cmd

import (
	"fmt"

	"github.com/brogergvhs/flamed/internal/config"

	"github.com/spf13/cobra"
)

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename a profile, keeping it active if it was",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := pickProfile(args[0], "")
		if err != nil {
			return err
		}

		if err := config.RenameConfig(c.Label, args[1]); err != nil {
			return err
		}

		fmt.Printf("Renamed %s to %s (%s)\n", c.Label, args[1], c.BaseURL)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configRenameCmd)
}
