package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gaswatch/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gaswatch %s\n", version.String())
	},
}
