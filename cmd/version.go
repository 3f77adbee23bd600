package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/brogergvhs/flamed/internal/config"
	"github.com/brogergvhs/flamed/internal/ui"

	"github.com/spf13/cobra"
)

// Version is stamped by the release build with -ldflags.
var Version = "dev"

type buildInfo struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
	Site      string `json:"default_site"`
}

func readBuildInfo() buildInfo {
	bi := buildInfo{Version: Version, Site: config.DefaultBaseURL}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return bi
	}
	bi.GoVersion = info.GoVersion
	if bi.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		bi.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			bi.Revision = s.Value
		case "vcs.modified":
			bi.Modified = s.Value == "true"
		}
	}

	return bi
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the flamed version and build details",
	RunE: func(cmd *cobra.Command, args []string) error {
		bi := readBuildInfo()

		p := ui.NewPrinter(flagJSON)
		if p.JSON {
			return p.PrintJSON(bi)
		}

		rev := bi.Revision
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if bi.Modified {
			rev += "+dirty"
		}

		fmt.Println("flamed version:", bi.Version)
		if rev != "" {
			fmt.Println("revision:", rev)
		}
		fmt.Println("go:", bi.GoVersion)
		fmt.Println("default site:", bi.Site)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
