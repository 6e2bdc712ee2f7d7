package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of founder-finder",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("founder-finder %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
