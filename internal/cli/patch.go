package cli

import (
	"github.com/spf13/cobra"
)

var patchCmd = &cobra.Command{
	Use:   "patch URL",
	Short: "Make a PATCH request to the specified URL",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		executeVerb(cmd, "PATCH", args[0])
	},
}

func init() {
	registerRequestFlags(patchCmd, true)
}
