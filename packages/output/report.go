package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/abdul-hamid-achik/volley/packages/core/runner"
)

// WriteReport writes the run records as a pretty-printed JSON array,
// replacing whatever was at path before. An empty run still produces a valid
// document: "[]", never "null".
func WriteReport(path string, records []*runner.Record) error {
	if records == nil {
		records = []*runner.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
