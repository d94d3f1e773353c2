package main

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of gutenberg-cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetBool("short")
		return printVersion(cmd.OutOrStdout(), short)
	},
}

// printVersion writes the release version and, unless short, the Go
// toolchain and VCS revision recorded in the binary.
func printVersion(w io.Writer, short bool) error {
	if short {
		_, err := fmt.Fprintln(w, version)
		return err
	}
	fmt.Fprintf(w, "gutenberg-cache %s\n", version)
	fmt.Fprintf(w, "  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if rev := revision(); rev != "" {
		fmt.Fprintf(w, "  revision: %s\n", rev)
	}
	return nil
}

func revision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	rev, dirty := "", false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev != "" && dirty {
		rev += " (modified)"
	}
	return rev
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version number")

	rootCmd.AddCommand(versionCmd)
}
