package commands

import (
	"fmt"
	"os"

	"github.com/dekarrin/corral"
	"github.com/spf13/cobra"
)

var (
	sendingCommands = &cobra.Group{
		Title: "Running Files",
		ID:    "sending",
	}
)

func init() {
	rootCmd.AddGroup(sendingCommands)
	rootCmd.SetUsageTemplate(usageTemplate)
	rootCmd.SetHelpTemplate(helpTemplate)
}

var rootCmd = &cobra.Command{
	Use:           "corral",
	Short:         "corral runs declarative HTTP test files",
	Long:          "corral is a CLI that parses and executes files written in a declarative HTTP request/response testing language.",
	Version:       corral.ToolVersion,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
