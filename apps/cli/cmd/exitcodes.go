package cmd

// Exit codes for the volley CLI. The contract is deliberately coarse:
// anything that prevents a complete run (unreadable input, a parse error,
// a transport failure, an unwritable report) exits 1. HTTP error statuses
// are recorded exchanges, not failures.
const (
	// ExitSuccess indicates the whole run completed
	ExitSuccess = 0

	// ExitFailure indicates the run could not complete
	ExitFailure = 1
)
