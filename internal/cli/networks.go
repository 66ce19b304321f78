package cli

import (
	"github.com/spf13/cobra"
)

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "Print the configured network descriptors",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Networks()
	},
}
