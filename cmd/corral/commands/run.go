package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dekarrin/corral"
	"github.com/dekarrin/corral/cmd/corral/cliflags"
	"github.com/dekarrin/corral/cmd/corral/cmdio"
	"github.com/spf13/cobra"
)

const (
	exitSuccess      = 0
	exitRunnerError  = 2
	exitAssertFailed = 3
)

var (
	flagReportFile string
	flagTimeout    string
)

func init() {
	runCmd.Flags().StringArrayVarP(&cliflags.Vars, "variable", "V", nil, "Set a variable's value for the run. Format is `NAME=VALUE`. May be given multiple times.")
	runCmd.Flags().StringVarP(&cliflags.VarsFile, "variables-file", "", "", "Load variables from the `FILE`, a JSON object of name/value strings.")
	runCmd.Flags().BoolVarP(&cliflags.BInsecure, "insecure", "k", false, "Disable TLS certificate verification.")
	runCmd.Flags().BoolVarP(&cliflags.BFailAtEnd, "fail-at-end", "", false, "Continue running after a failing entry and report every entry's outcome instead of stopping at the first failure.")
	runCmd.Flags().StringVarP(&flagTimeout, "timeout", "", "", "Bound how long a single HTTP exchange may take, e.g. `30s`. Empty means no timeout.")
	runCmd.Flags().StringVarP(&flagReportFile, "report-file", "", "", "Write a REZI-encoded run report to `FILE` in addition to printing results.")

	runCmd.GroupID = sendingCommands.ID
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use: "run FILE [FILE...]",
	Annotations: map[string]string{
		annotationKeyHelpUsages: "" +
			"run FILE [FILE...] [-Vk] [--fail-at-end]",
	},
	Short: "Run one or more corral files",
	Long:  "Parses each given file and runs its entries in order, printing the outcome of every request and assertion.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		io := cmdio.From(cmd)
		return runFiles(io, args)
	},
}

func runFiles(io cmdio.IO, paths []string) error {
	vars, err := gatherVars()
	if err != nil {
		return err
	}

	timeout, err := parseTimeout()
	if err != nil {
		return err
	}

	client := corral.NewDefaultHTTPClient(cliflags.BInsecure, timeout)

	worstExit := exitSuccess
	var allResults []corral.RunResult

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			io.PrintErrf("%s: %s\n", path, err)
			worstExit = maxExit(worstExit, exitRunnerError)
			continue
		}

		file, perr := corral.ParseFile(string(src))
		if perr != nil {
			io.PrintErrf("%s\n", corral.FormatError(string(src), perr))
			worstExit = maxExit(worstExit, exitRunnerError)
			continue
		}

		contextDir := contextDirOf(path)
		runner := corral.NewRunner(client, contextDir, os.ReadFile, vars)

		opts := corral.RunOptions{
			FailAtEnd: cliflags.BFailAtEnd,
		}

		result := runner.Run(file, opts)
		allResults = append(allResults, result)

		fileExit := printRunResult(io, path, string(src), result)
		worstExit = maxExit(worstExit, fileExit)
	}

	if flagReportFile != "" {
		if err := writeReportFile(flagReportFile, allResults); err != nil {
			io.PrintErrf("report-file: %s\n", err)
			worstExit = maxExit(worstExit, exitRunnerError)
		}
	}

	if worstExit != exitSuccess {
		os.Exit(worstExit)
	}
	return nil
}

// printRunResult prints one file's entries and returns the exit class this
// file alone contributes (spec §9: 0 all success, 2 any runner error, 3 any
// assert failure with no runner error).
func printRunResult(io cmdio.IO, path, src string, result corral.RunResult) int {
	io.Printf("%s:\n", path)

	exit := exitSuccess
	for i, er := range result.Entries {
		label := fmt.Sprintf("  [%d] %s %s", i+1, er.Request.Method, er.Request.URL)

		if er.Err != nil {
			io.Printf("%s -> error\n", label)
			io.PrintErrf("%s\n", corral.FormatError(src, er.Err))
			if corral.IsAssertFailure(er.Err) {
				exit = maxExit(exit, exitAssertFailed)
			} else {
				exit = maxExit(exit, exitRunnerError)
			}
			continue
		}

		status := 0
		if er.Response != nil {
			status = er.Response.Status
		}
		io.Printf("%s -> %d\n", label, status)

		for _, a := range er.Asserts {
			if a.Err == nil {
				continue
			}
			io.PrintErrf("%s\n", corral.FormatError(src, a.Err))
			if corral.IsAssertFailure(a.Err) {
				exit = maxExit(exit, exitAssertFailed)
			} else {
				exit = maxExit(exit, exitRunnerError)
			}
		}
	}

	return exit
}

// maxExit returns the more severe of two exit codes: a runner error outranks
// an assert failure, which outranks success.
func maxExit(a, b int) int {
	rank := func(code int) int {
		switch code {
		case exitRunnerError:
			return 2
		case exitAssertFailed:
			return 1
		}
		return 0
	}
	if rank(b) > rank(a) {
		return b
	}
	return a
}

func gatherVars() (map[string]string, error) {
	vars := make(map[string]string)

	if cliflags.VarsFile != "" {
		data, err := os.ReadFile(cliflags.VarsFile)
		if err != nil {
			return nil, fmt.Errorf("read variables file %q: %w", cliflags.VarsFile, err)
		}
		if err := json.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("parse variables file %q: %w", cliflags.VarsFile, err)
		}
	}

	for idx, v := range cliflags.Vars {
		parts := strings.SplitN(v, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("variable #%d (%q) is not in format name=value", idx+1, v)
		}
		vars[parts[0]] = parts[1]
	}

	return vars, nil
}

func parseTimeout() (time.Duration, error) {
	if flagTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(flagTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid --timeout %q: %w", flagTimeout, err)
	}
	return d, nil
}

func contextDirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}
	return path[:idx]
}

func writeReportFile(path string, results []corral.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, rr := range results {
		rep := corral.NewReport(rr)
		if err := corral.WriteReport(f, rep); err != nil {
			return err
		}
	}
	return nil
}
