package cmd

import (
	"github.com/brogergvhs/flamed/internal/config"
	"github.com/brogergvhs/flamed/internal/ui"

	"github.com/spf13/cobra"
)

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available configs",
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := config.ListConfigs()
		if err != nil {
			return err
		}

		p := ui.NewPrinter(flagJSON)
		if p.JSON {
			return p.PrintJSON(list)
		}

		rows := make([][]string, 0, len(list))
		for _, c := range list {
			activeMark := ""
			if c.Active {
				activeMark = "yes"
			}
			site := c.BaseURL
			if c.Err != "" {
				site = "(unreadable)"
			}
			rows = append(rows, []string{c.Label, site, c.Path, activeMark})
		}

		return p.PrintTable([]string{"LABEL", "SITE", "PATH", "ACTIVE"}, rows)
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
}
