package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

type VersionInfo struct {
	Version string
	Commit  string
}

var versionInfo = VersionInfo{
	Version: "unknown",
	Commit:  "unknown",
}

func SetVersionInfo(info VersionInfo) {
	versionInfo = info
}

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "photocat %s (commit %s, %s %s/%s)\n",
				versionInfo.Version, versionInfo.Commit, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
