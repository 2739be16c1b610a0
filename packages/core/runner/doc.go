// Package runner executes a batch of parsed requests against their targets.
//
// Dispatch is strictly sequential: requests go out in file order and each
// one waits for the previous response. HTTP error statuses are recorded like
// any other response; only a failed exchange (refused connection, timeout,
// DNS failure) aborts the run, and even then the records collected so far
// are handed back.
package runner
