// Package cmd implements the volley CLI commands using Cobra.
//
// Available commands:
//   - run: Send the requests in volley files and write the JSON report
//   - validate: Check file syntax and shape without sending anything
//   - list: Display the requests defined in files
//   - import: Convert curl commands or OpenAPI documents into volley files
//   - record: Record live traffic through a reverse proxy into a volley file
//   - history: Browse past runs stored in a SQLite database
//   - init: Create a starter request file and config
//   - version: Show volley version information
//
// The CLI supports flags for the report path, per-request timeout, dispatch
// rate, quiet/verbose output, and watch mode for development workflows.
package cmd
