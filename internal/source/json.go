package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONReader handles whole-document JSON files.
type JSONReader struct {
	Encoding string
}

// CanHandle returns true for .json files.
func (r *JSONReader) CanHandle(path string) bool {
	return hasExt(path, ".json")
}

// Read parses the entire file as one JSON document and yields it as a
// single record at line 1. A parse failure is fatal for this file; the
// caller decides whether to skip it and continue.
func (r *JSONReader) Read(ctx context.Context, path string, fn VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoded, err := decodeReader(f, r.Encoding)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return err
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return finishVisit(fn(Record{Line: 1, Value: value}))
}
