package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// maxLineBytes bounds a single input line. Lines beyond this abort the
// file read with a per-file error.
const maxLineBytes = 10 * 1024 * 1024

// JSONLReader handles line-delimited JSON files.
type JSONLReader struct {
	Encoding string
}

// CanHandle returns true for .jsonl files.
func (r *JSONLReader) CanHandle(path string) bool {
	return hasExt(path, ".jsonl")
}

// Read yields one record per non-blank line. A line that fails to parse
// as JSON yields a synthetic record carrying the raw line and the parse
// error instead of aborting the file.
func (r *JSONLReader) Read(ctx context.Context, path string, fn VisitFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	decoded, err := decodeReader(f, r.Encoding)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var value any
		if err := json.Unmarshal([]byte(line), &value); err != nil {
			value = map[string]any{
				"text":         sanitizeUTF8(line),
				"_parse_error": fmt.Sprintf("invalid_json: %v", err),
			}
		}
		if err := fn(Record{Line: lineNo, Value: value}); err != nil {
			return finishVisit(err)
		}
	}
	return scanner.Err()
}
