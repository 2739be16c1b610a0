// Package config loads the optional volley configuration file
// (.volley.yaml). Settings here become run defaults; command-line flags
// always win.
package config
