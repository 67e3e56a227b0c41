// Version command for the cabinet CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/osteokit/cabinet/pkg/cabinet"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cabinet v%s\n", cabinet.Version)
	},
}
