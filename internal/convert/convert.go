// Package convert implements stage two of the pipeline: reformatting
// extracted multiple-choice records into the fixed evaluation schema
// consumed by the grading harness.
package convert

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/hurttlocker/cardex/internal/extract"
)

// DefaultTag is the tag stamped on every evaluation record.
const DefaultTag = "Cardio-MedQA"

// EvalRecord is one line of the evaluation set.
type EvalRecord struct {
	Knowledge  string `json:"Knowledge"`
	Question   string `json:"Question"`
	Answer     string `json:"Answer"`
	Prediction string `json:"Prediction"`
	Tag        string `json:"Tag"`
}

// Options configures a conversion run.
type Options struct {
	Input  string
	Output string
	Tag    string
}

// Result summarizes a conversion run.
type Result struct {
	RecordsConverted int `json:"records_converted"`
	LinesSkipped     int `json:"lines_skipped"`
}

// Run reads stage-one JSONL from opts.Input and writes one evaluation
// record per line to opts.Output. Blank lines are ignored; a line that
// fails to parse is warned about and skipped.
func Run(ctx context.Context, opts Options, log *logrus.Logger) (*Result, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	tag := opts.Tag
	if tag == "" {
		tag = DefaultTag
	}

	in, err := os.Open(opts.Input)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(opts.Output), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	out, err := os.Create(opts.Output)
	if err != nil {
		return nil, fmt.Errorf("opening output: %w", err)
	}
	defer out.Close()

	buf := bufio.NewWriter(out)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)

	res := &Result{}
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 10*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			res.LinesSkipped++
			log.WithFields(logrus.Fields{"line": lineNo, "error": err}).
				Warn("skipping unparseable line")
			continue
		}

		rec := EvalRecord{
			Knowledge:  DeriveKnowledge(metaOf(obj)),
			Question:   stringField(obj, "question"),
			Answer:     stringField(obj, "answer_idx"),
			Prediction: "",
			Tag:        tag,
		}
		if err := enc.Encode(rec); err != nil {
			return res, fmt.Errorf("writing output: %w", err)
		}
		res.RecordsConverted++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("reading input: %w", err)
	}
	if err := buf.Flush(); err != nil {
		return res, fmt.Errorf("writing output: %w", err)
	}
	return res, nil
}

func metaOf(obj map[string]any) map[string]any {
	meta, _ := obj[extract.MetaKey].(map[string]any)
	return meta
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}
