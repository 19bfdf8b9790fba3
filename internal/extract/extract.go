// Package extract drives stage one of the curation pipeline: walk the
// input tree, read records out of each file, match their flattened text
// against the keyword pattern, and stream the matches with provenance
// metadata to a JSONL sink.
//
// The scan is single-threaded and deterministic: directory walk order,
// then within-file record order, then match order within a record.
// Per-file errors are logged and the file skipped; only an output write
// failure or cancellation ends the run early.
package extract

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hurttlocker/cardex/internal/flatten"
	"github.com/hurttlocker/cardex/internal/keyword"
	"github.com/hurttlocker/cardex/internal/source"
)

// MetaKey is the field injected into every emitted record.
const MetaKey = "_extract_meta"

// Defaults for the scan limits.
const (
	DefaultMaxFlattenItems  = flatten.DefaultMaxItems
	DefaultMaxHitsPerRecord = 20
)

// Configuration errors, reported before any scanning starts.
var (
	ErrNoExtensions = errors.New("extension list is empty")
	ErrNoKeywords   = errors.New("no keywords provided or all keywords were empty")
	ErrMaxRecords   = errors.New("max records must be non-negative")
)

// ErrWriteOutput marks a failed write to the output sink. It is fatal:
// the run stops, the sink is still closed.
var ErrWriteOutput = errors.New("writing output")

// errLimitReached stops the whole run once the record ceiling is hit.
var errLimitReached = errors.New("record limit reached")

// Meta is the provenance metadata attached to every emitted record.
type Meta struct {
	SourcePath      string   `json:"source_path"`
	SourceLine      int      `json:"source_line"`
	MatchedKeywords []string `json:"matched_keywords"`
}

// Options configures an extraction run.
type Options struct {
	Input      string   // file or directory to scan
	Output     string   // destination JSONL path; unused in dry-run
	Extensions []string // allowed file extensions, with leading dot
	Encoding   string   // input text encoding, empty = UTF-8

	MinLineLength    int // minimum trimmed length for .txt line records
	MaxFlattenItems  int // fragment budget per record
	MaxHitsPerRecord int // hits recorded per matched record
	MaxRecords       int // global ceiling on records scanned, 0 = unlimited

	IncludeFields []string // restrict matching and output to these fields
	ExcludeFields []string // dropped from matching and output

	DryRun bool // scan and count without writing
}

// Normalize fills in defaults and canonicalizes the extension list.
func (o *Options) Normalize() {
	if o.MinLineLength <= 0 {
		o.MinLineLength = source.DefaultMinLineLength
	}
	if o.MaxFlattenItems <= 0 {
		o.MaxFlattenItems = DefaultMaxFlattenItems
	}
	if o.MaxHitsPerRecord <= 0 {
		o.MaxHitsPerRecord = DefaultMaxHitsPerRecord
	}
	exts := make([]string, 0, len(o.Extensions))
	for _, ext := range o.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	o.Extensions = exts
}

// Result summarizes an extraction run.
type Result struct {
	FilesScanned   int `json:"files_scanned"`
	RecordsScanned int `json:"records_scanned"`
	RecordsMatched int `json:"records_matched"`
}

// Add merges another Result into this one.
func (r *Result) Add(other *Result) {
	r.FilesScanned += other.FilesScanned
	r.RecordsScanned += other.RecordsScanned
	r.RecordsMatched += other.RecordsMatched
}

// Extractor runs stage one with a fixed matcher and options.
type Extractor struct {
	matcher *keyword.Matcher
	opts    Options
	log     *logrus.Logger

	result  Result
	encoder *json.Encoder
}

// New validates opts and returns a ready Extractor. Validation failures
// are configuration errors and happen before any file is touched.
func New(matcher *keyword.Matcher, opts Options, log *logrus.Logger) (*Extractor, error) {
	opts.Normalize()
	if len(opts.Extensions) == 0 {
		return nil, ErrNoExtensions
	}
	if matcher == nil || len(matcher.Keywords()) == 0 {
		return nil, ErrNoKeywords
	}
	if opts.MaxRecords < 0 {
		return nil, ErrMaxRecords
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Extractor{matcher: matcher, opts: opts, log: log}, nil
}

// Run performs the scan. The returned Result is valid even when err is
// non-nil, so callers can report partial counts after an interruption.
func (e *Extractor) Run(ctx context.Context) (*Result, error) {
	e.result = Result{}

	var (
		out *os.File
		buf *bufio.Writer
	)
	if !e.opts.DryRun {
		f, err := openOutput(e.opts.Output)
		if err != nil {
			return &e.result, err
		}
		out = f
		buf = bufio.NewWriter(f)
		e.encoder = json.NewEncoder(buf)
		e.encoder.SetEscapeHTML(false)
	}

	err := e.scan(ctx)

	// Close the sink on every exit path.
	if out != nil {
		if ferr := buf.Flush(); ferr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrWriteOutput, ferr)
		}
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %v", ErrWriteOutput, cerr)
		}
	}
	return &e.result, err
}

func (e *Extractor) scan(ctx context.Context) error {
	readers := source.Readers(source.Options{
		Encoding:      e.opts.Encoding,
		MinLineLength: e.opts.MinLineLength,
	})

	err := e.walkFiles(ctx, func(path string) error {
		e.result.FilesScanned++

		reader := source.ForExtension(readers, path)
		if reader == nil {
			return nil
		}

		rerr := reader.Read(ctx, path, func(rec source.Record) error {
			if e.opts.MaxRecords > 0 && e.result.RecordsScanned >= e.opts.MaxRecords {
				return errLimitReached
			}
			e.result.RecordsScanned++
			return e.process(path, rec)
		})
		switch {
		case rerr == nil:
			return nil
		case errors.Is(rerr, errLimitReached),
			errors.Is(rerr, ErrWriteOutput),
			errors.Is(rerr, context.Canceled),
			errors.Is(rerr, context.DeadlineExceeded):
			return rerr
		default:
			// Unreadable or malformed file: warn, skip, keep scanning.
			e.log.WithFields(logrus.Fields{"file": path, "error": rerr}).
				Warn("skipping file")
			return nil
		}
	})

	if errors.Is(err, errLimitReached) {
		return nil
	}
	return err
}

// process matches one record and emits it if it hits.
func (e *Extractor) process(path string, rec source.Record) error {
	matchable := FilterFields(rec.Value, e.opts.IncludeFields, e.opts.ExcludeFields)
	text := flatten.Text(matchable, e.opts.MaxFlattenItems)
	hits := e.matcher.Find(text, e.opts.MaxHitsPerRecord)
	if len(hits) == 0 {
		return nil
	}
	e.result.RecordsMatched++

	if e.opts.DryRun {
		return nil
	}

	meta := Meta{SourcePath: path, SourceLine: rec.Line, MatchedKeywords: hits}
	var outRec map[string]any
	if filtered, ok := matchable.(map[string]any); ok {
		outRec = make(map[string]any, len(filtered)+1)
		for k, v := range filtered {
			outRec[k] = v
		}
	} else {
		outRec = map[string]any{"raw": matchable}
	}
	outRec[MetaKey] = meta

	if err := e.encoder.Encode(outRec); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// walkFiles visits the input file, or walks the input tree depth-first
// restricted to the allowed extensions. A single-file input bypasses
// the extension filter: an explicitly named file is always worth
// trying.
func (e *Extractor) walkFiles(ctx context.Context, fn func(path string) error) error {
	info, err := os.Stat(e.opts.Input)
	if err != nil {
		return fmt.Errorf("reading input %s: %w", e.opts.Input, err)
	}
	if !info.IsDir() {
		return fn(e.opts.Input)
	}

	return filepath.WalkDir(e.opts.Input, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			e.log.WithFields(logrus.Fields{"path": path, "error": err}).
				Warn("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			return nil
		}
		if !e.allowedExt(path) {
			return nil
		}
		return fn(path)
	})
}

func (e *Extractor) allowedExt(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, allowed := range e.opts.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// openOutput creates the output file, making parent directories as
// needed.
func openOutput(path string) (*os.File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("output path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving output path %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(abs)
	if err != nil {
		return nil, fmt.Errorf("opening output file %s: %w", path, err)
	}
	return f, nil
}
