package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobrake/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version info",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), versionLine(buildinfo.Get()))
	},
}

func init() {
	rootCmd.Version = buildinfo.Get().Version
	rootCmd.AddCommand(versionCmd)
}

func versionLine(info buildinfo.Info) string {
	if info.Revision == "" {
		return "jobrake " + info.Version
	}
	return fmt.Sprintf("jobrake %s (%s)", info.Version, info.Revision)
}
