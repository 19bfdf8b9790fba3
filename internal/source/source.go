// Package source reads records out of the dataset files the extractor
// scans. Each supported format (.jsonl, .json, .txt) has its own Reader;
// ForExtension dispatches on the file's extension.
//
// Reads are streaming: records are handed to a visit callback one at a
// time with their 1-based line position, so large files never need to be
// held in memory (a .json file is the whole-document exception by
// contract). Malformed .jsonl lines are preserved as synthetic text
// records rather than dropped, so their raw content stays eligible for
// keyword matching.
package source

import (
	"context"
	"errors"
	"strings"
)

// Record is one parsed value plus its position in the source file.
// Line is 1 for whole-document formats.
type Record struct {
	Line  int
	Value any
}

// VisitFunc receives records in file order. Returning ErrStop ends the
// read cleanly; any other error aborts it and is returned by Read.
type VisitFunc func(rec Record) error

// ErrStop signals a deliberate early stop of a read.
var ErrStop = errors.New("source: stop")

// Reader produces records from one file format.
type Reader interface {
	// CanHandle reports whether this reader supports the given path.
	CanHandle(path string) bool

	// Read streams records from path into fn.
	Read(ctx context.Context, path string, fn VisitFunc) error
}

// Options configures reader construction.
type Options struct {
	// Encoding is the IANA name of the input text encoding. Empty means
	// UTF-8. Malformed byte sequences are replaced, never fatal.
	Encoding string

	// MinLineLength is the minimum trimmed length for a .txt line to
	// count as a record. Shorter lines are assumed to be noise or
	// headers and skipped.
	MinLineLength int
}

// DefaultMinLineLength is the default threshold for .txt line records.
const DefaultMinLineLength = 20

// Readers returns the full reader set for the given options.
func Readers(opts Options) []Reader {
	if opts.MinLineLength <= 0 {
		opts.MinLineLength = DefaultMinLineLength
	}
	return []Reader{
		&JSONLReader{Encoding: opts.Encoding},
		&JSONReader{Encoding: opts.Encoding},
		&TextReader{Encoding: opts.Encoding, MinLineLength: opts.MinLineLength},
	}
}

// ForExtension picks the reader handling path, or nil if none does.
func ForExtension(readers []Reader, path string) Reader {
	for _, r := range readers {
		if r.CanHandle(path) {
			return r
		}
	}
	return nil
}

func finishVisit(err error) error {
	if errors.Is(err, ErrStop) {
		return nil
	}
	return err
}

func hasExt(path, ext string) bool {
	return strings.HasSuffix(strings.ToLower(path), ext)
}
