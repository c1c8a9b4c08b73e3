// SPDX-License-Identifier: GPL-2.0-or-later

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "qbsp",
	Short: "qbsp - BSP compiler for quake style maps",
	Long: `qbsp compiles a brush map into a BSP tree: it partitions the
brushes, generates the portal graph, floods areas, derives and merges
the visible faces and repairs T-junctions between neighbouring faces.`,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
