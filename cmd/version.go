package cmd

import (
	"fmt"
	"runtime"

	"github.com/khanhnv2901/hdrscan/internal/analyzer"
	"github.com/spf13/cobra"
)

// Version information (injected at build time via -ldflags)
// These default values indicate a development build
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display detailed version information for hdrscan",
	Run: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		out := cmd.OutOrStdout()

		if verbose {
			fmt.Fprintf(out, `hdrscan Version Information:
  Version:    %s
  Git Commit: %s
  Build Date: %s
  Go Version: %s
  OS/Arch:    %s/%s
  Rules:      %d insecure/deprecated checks
`, Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH, len(analyzer.InsecureRuleIDs()))
		} else {
			fmt.Fprintf(out, "hdrscan version %s\n", Version)
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "Show detailed version information")
}
