// Package cliflags contains CLI flags. They may be referenced by multiple
// commands.
package cliflags

var (
	// Vars is variables, in NAME=VALUE format. Can be specified more than
	// once, and overrides any value of the same name loaded from a
	// variables file.
	Vars []string

	// VarsFile is the path to a JSON file, an object of name/value strings,
	// to seed the variable environment from before a run starts.
	VarsFile string

	// BInsecure is a switch flag that, when set, disables TLS certificate
	// verification, allowing requests to go through even if the server's
	// certificate is invalid.
	BInsecure bool

	// BFailAtEnd is a switch flag that, when set, causes a run to continue
	// past a failing entry and report every entry's outcome instead of
	// stopping at the first failure.
	BFailAtEnd bool

	// Timeout bounds how long a single HTTP exchange may take. Zero means
	// no timeout.
	Timeout string
)
