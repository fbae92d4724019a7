package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/brag/internal/buildinfo"
	"github.com/aidanlsb/brag/internal/commands"
)

type versionInfo struct {
	buildinfo.Info
	GoVersion string `json:"go_version"`
	GOOS      string `json:"goos"`
	GOARCH    string `json:"goarch"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show brag version and build information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := versionInfo{
			Info:      buildinfo.Get(),
			GoVersion: runtime.Version(),
			GOOS:      runtime.GOOS,
			GOARCH:    runtime.GOARCH,
		}

		if isJSONOutput() {
			outputSuccess(commands.Output{Data: info})
			return nil
		}

		fmt.Printf("brag %s\n", info.Version)
		if info.Commit != "" {
			fmt.Printf("commit: %s\n", info.Commit)
		}
		if info.Date != "" {
			fmt.Printf("date: %s\n", info.Date)
		}
		fmt.Printf("go: %s %s/%s\n", info.GoVersion, info.GOOS, info.GOARCH)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
