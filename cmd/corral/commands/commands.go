package commands

import (
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"
)

const (
	// multi-line uses
	annotationKeyHelpUsages = "corral_help_usages"
)

func init() {
	cobra.AddTemplateFunc("wrapFlags", wrappedFlagUsages)
	cobra.AddTemplateFunc("longHelp", getLongHelp)
	cobra.AddTemplateFunc("longUsages", longHelpUsageLines)
}

func getLongHelp(cmd *cobra.Command) string {
	return wrapTerminalText(cmd.Long)
}

func wrappedFlagUsages(flagset *pflag.FlagSet) string {
	w := getWrapWidth()
	return flagset.FlagUsagesWrapped(w)
}

func longHelpUsageLines(cmd *cobra.Command) []string {
	usages, ok := cmd.Annotations[annotationKeyHelpUsages]
	if !ok {
		return []string{cmd.UseLine()}
	}

	prefix := ""
	if cmd.HasParent() {
		prefix = cmd.Parent().CommandPath() + " "
	}

	lines := []string{}
	for _, usage := range strings.Split(usages, "\n") {
		usage = strings.TrimSpace(usage)
		if usage != "" {
			usage = prefix + usage
		}

		lines = append(lines, usage)
	}

	return lines
}

func wrapTerminalText(s string) string {
	w := getWrapWidth()
	return rosed.
		Edit(s).
		WrapOpts(w, rosed.Options{
			PreserveParagraphs: true,
		}).
		String()
}

// getWrapWidth returns the amount to wrap things to. It will attempt to
// retrieve the current terminal width in characters and return that. If it
// cannot retrieve it, it will return a default width of 80 characters.
func getWrapWidth() int {
	const defaultWidth = 80

	actualWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		actualWidth = defaultWidth
	}

	return actualWidth
}

// usageTemplate is identical to the one used by default (as of cobra@v1.8.0),
// but with the flag usage explicitly set to wrap using the custom
// wrappedFlagUsages func above. This implements the same pattern in code
// suggested by and authored by @jpmcb on GitHub issue #1805 of the cobra
// library. This implementation is adapted from
// https://github.com/vmware-tanzu/community-edition as linked in that issue by
// @jpmcb.
const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}` + usageAfterUseLineTemplate

const usageAfterUseLineTemplate = `{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{wrapFlags .LocalFlags | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{wrapFlags .InheritedFlags | trimTrailingWhitespaces}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

// helpTemplate is a custom template used for outputting program help. Includes
// entire Usage section due to it not being easily customizable for case where
// it is shown as part of help output.
const helpTemplate = `{{.Short}}

Usage:
{{range longUsages .}}  {{.}}
{{end}}
{{with longHelp .}}{{. | trimTrailingWhitespaces}}{{end}}{{if or .Runnable .HasSubCommands}}` + usageAfterUseLineTemplate + `{{end}}`
