package defaults

// Exit codes for the CLI.
const (
	ExitSuccess       = 0 // All outcomes flushed (zero successes still counts)
	ExitConfigError   = 2 // Invalid arguments, exclusion list, or input source
	ExitOutputError   = 3 // Output destination failed mid-run (partial results)
	ExitInternalError = 4 // Unexpected internal error
)
