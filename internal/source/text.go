package source

import (
	"bufio"
	"context"
	"os"
	"strings"
	"unicode/utf8"
)

// TextReader handles plain text files, one record per line.
type TextReader struct {
	Encoding      string
	MinLineLength int
}

// CanHandle returns true for .txt files.
func (r *TextReader) CanHandle(path string) bool {
	return hasExt(path, ".txt")
}

// Read yields {"text": line} per line whose trimmed length meets the
// minimum. Shorter lines are treated as noise or headers and skipped.
func (r *TextReader) Read(ctx context.Context, path string, fn VisitFunc) error {
	min := r.MinLineLength
	if min <= 0 {
		min = DefaultMinLineLength
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

	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return err
		}
		text := strings.TrimSpace(scanner.Text())
		if utf8.RuneCountInString(text) < min {
			continue
		}
		rec := Record{
			Line:  lineNo,
			Value: map[string]any{"text": sanitizeUTF8(text)},
		}
		if err := fn(rec); err != nil {
			return finishVisit(err)
		}
	}
	return scanner.Err()
}
