package config

// DefaultOutput is where the JSON report lands unless overridden.
const DefaultOutput = "volley.json"

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Output:       DefaultOutput,
		Timeout:      "", // no timeout: slow servers are measured, not aborted
		MaxRedirects: 10,
	}
}
