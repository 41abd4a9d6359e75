package corral

// ToolVersion is the version string this package reports in its default
// User-Agent header and in the CLI's `version` command.
const ToolVersion = "0.1.0"
