package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument_Valid(t *testing.T) {
	doc := `- target: localhost
  port: 8080
  endpoint: /health
  method: GET
- target: localhost
  port: 8080
  endpoint: /login
  method: POST
  headers:
    Content-Type: application/x-www-form-urlencoded
  data:
    user: admin
`

	assert.NoError(t, ValidateDocument([]byte(doc)))
}

func TestValidateDocument_ReportsEveryDefect(t *testing.T) {
	doc := `- port: 8080
  endpoint: /health
  method: GET
- target: localhost
  port: 99999
  endpoint: /health
  method: GET
`

	err := ValidateDocument([]byte(doc))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "target")
	assert.Contains(t, err.Error(), "port")
}

func TestValidateDocument_PortBounds(t *testing.T) {
	tests := []struct {
		name    string
		port    string
		wantErr bool
	}{
		{"port zero", "0", true},
		{"port too large", "70000", true},
		{"port one", "1", false},
		{"port max", "65535", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "- target: localhost\n  port: " + tt.port + "\n  endpoint: /health\n  method: GET\n"
			err := ValidateDocument([]byte(doc))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateDocument_UnknownField(t *testing.T) {
	doc := `- target: localhost
  port: 8080
  endpoint: /health
  method: GET
  timeout: 30
`

	err := ValidateDocument([]byte(doc))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout")
}

func TestValidateDocumentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	doc := "- target: localhost\n  endpoint: /health\n  method: GET\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	err := ValidateDocumentFile(path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
