package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// readRequestFile decodes a JSON request body from path, or stdin for "-".
// Unknown fields are rejected the same way the API rejects them.
func readRequestFile(path string, dst any) error {
	var reader io.Reader
	trimmed := strings.TrimSpace(path)
	if trimmed == "-" {
		reader = os.Stdin
	} else {
		file, err := os.Open(trimmed) // #nosec G304 -- input path is user-provided
		if err != nil {
			return err
		}
		defer file.Close() // nolint:errcheck
		reader = file
	}

	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", trimmed, err)
	}
	return nil
}

// splitList splits comma separated flag values and drops blanks.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
