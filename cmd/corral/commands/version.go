package commands

import (
	"github.com/dekarrin/corral"
	"github.com/dekarrin/corral/cmd/corral/cmdio"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the corral version",
	Long:  "Prints the version of corral that is running.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		io := cmdio.From(cmd)
		io.Println("corral " + corral.ToolVersion)
		return nil
	},
}
