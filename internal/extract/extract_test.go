package extract

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/cardex/internal/keyword"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func buildMatcher(t *testing.T, keywords ...string) *keyword.Matcher {
	t.Helper()
	m, cleaned := keyword.Build(keywords)
	require.NotEmpty(t, cleaned)
	return m
}

func readOutputLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if scanner.Text() == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		out = append(out, m)
	}
	require.NoError(t, scanner.Err())
	return out
}

func runExtract(t *testing.T, m *keyword.Matcher, opts Options) (*Result, error) {
	t.Helper()
	e, err := New(m, opts, quietLogger())
	require.NoError(t, err)
	return e.Run(context.Background())
}

func defaultOpts(input, output string) Options {
	return Options{
		Input:      input,
		Output:     output,
		Extensions: []string{".jsonl", ".json", ".txt"},
	}
}

func TestNew_ConfigurationErrors(t *testing.T) {
	m := buildMatcher(t, "MI")

	_, err := New(m, Options{Extensions: nil}, quietLogger())
	assert.ErrorIs(t, err, ErrNoExtensions)

	empty, _ := keyword.Build(nil)
	_, err = New(empty, Options{Extensions: []string{".jsonl"}}, quietLogger())
	assert.ErrorIs(t, err, ErrNoKeywords)

	_, err = New(m, Options{Extensions: []string{".jsonl"}, MaxRecords: -1}, quietLogger())
	assert.ErrorIs(t, err, ErrMaxRecords)
}

func TestExtractor_MatchesWithProvenance(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "questions/US/dev.jsonl",
		`{"question": "Patient presents with chest pain and elevated troponin, suspect STEMI", "answer_idx": "B"}
{"question": "completely unrelated dermatology content", "answer_idx": "A"}
`)
	output := filepath.Join(dir, "out", "matches.jsonl")

	res, err := runExtract(t, buildMatcher(t, "STEMI"), defaultOpts(dir, output))
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesScanned)
	assert.Equal(t, 2, res.RecordsScanned)
	assert.Equal(t, 1, res.RecordsMatched)

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	rec := lines[0]
	assert.Equal(t, "B", rec["answer_idx"])

	meta, ok := rec[MetaKey].(map[string]any)
	require.True(t, ok, "emitted record must carry %s", MetaKey)
	assert.Equal(t, []any{"STEMI"}, meta["matched_keywords"])
	assert.Equal(t, float64(1), meta["source_line"])
	assert.Contains(t, meta["source_path"], filepath.Join("questions", "US", "dev.jsonl"))
}

func TestExtractor_MalformedJSONLLineStillMatchable(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "bad.jsonl", `{"broken": "json with heart failure mentioned`+"\n")
	output := filepath.Join(dir, "out.jsonl")

	res, err := runExtract(t, buildMatcher(t, "heart failure"), defaultOpts(dir, output))
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecordsMatched)

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "_parse_error")
}

func TestExtractor_MaxRecordsStopsScan(t *testing.T) {
	dir := t.TempDir()
	var content string
	for range 10 {
		content += `{"question": "cardiac arrest case"}` + "\n"
	}
	writeInput(t, dir, "a.jsonl", content)
	output := filepath.Join(dir, "out.jsonl")

	opts := defaultOpts(dir, output)
	opts.MaxRecords = 5
	res, err := runExtract(t, buildMatcher(t, "cardiac"), opts)
	require.NoError(t, err)
	assert.Equal(t, 5, res.RecordsScanned)
	assert.Equal(t, 5, res.RecordsMatched)
	assert.Len(t, readOutputLines(t, output), 5)
}

func TestExtractor_MetaInfoExcluded(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.jsonl",
		`{"question": "nothing relevant here", "meta_info": "cardiology shelf exam"}
`)
	output := filepath.Join(dir, "out.jsonl")

	opts := defaultOpts(dir, output)
	opts.ExcludeFields = []string{"meta_info"}
	res, err := runExtract(t, buildMatcher(t, "cardiology"), opts)
	require.NoError(t, err)
	assert.Zero(t, res.RecordsMatched, "excluded field must not be matched against")

	// Including it flips the outcome and the field shows up in output.
	res, err = runExtract(t, buildMatcher(t, "cardiology"), defaultOpts(dir, output))
	require.NoError(t, err)
	assert.Equal(t, 1, res.RecordsMatched)
	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	assert.Equal(t, "cardiology shelf exam", lines[0]["meta_info"])
}

func TestExtractor_FieldsRestrictMatchingAndOutput(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.jsonl",
		`{"question": "presents with angina", "explanation": "unused", "answer_idx": "C"}
`)
	output := filepath.Join(dir, "out.jsonl")

	opts := defaultOpts(dir, output)
	opts.IncludeFields = []string{"question", "answer_idx"}
	res, err := runExtract(t, buildMatcher(t, "angina"), opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.RecordsMatched)

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	assert.NotContains(t, lines[0], "explanation")
	assert.Contains(t, lines[0], "question")
	assert.Contains(t, lines[0], "answer_idx")
}

func TestExtractor_NonMapRecordWrapped(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "doc.json", `"standalone note about myocarditis"`)
	output := filepath.Join(dir, "out.jsonl")

	res, err := runExtract(t, buildMatcher(t, "myocarditis"), defaultOpts(dir, output))
	require.NoError(t, err)
	require.Equal(t, 1, res.RecordsMatched)

	lines := readOutputLines(t, output)
	require.Len(t, lines, 1)
	assert.Equal(t, "standalone note about myocarditis", lines[0]["raw"])
	meta := lines[0][MetaKey].(map[string]any)
	assert.Equal(t, float64(1), meta["source_line"])
}

func TestExtractor_BrokenJSONFileSkipped(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "broken.json", `{"unterminated": `)
	writeInput(t, dir, "good.jsonl", `{"q": "chronic heart failure"}`+"\n")
	output := filepath.Join(dir, "out.jsonl")

	res, err := runExtract(t, buildMatcher(t, "heart failure"), defaultOpts(dir, output))
	require.NoError(t, err, "a malformed .json file must not abort the run")
	assert.Equal(t, 2, res.FilesScanned)
	assert.Equal(t, 1, res.RecordsMatched)
}

func TestExtractor_DryRunSameCountsNoFile(t *testing.T) {
	dir := t.TempDir()
	inputDir := filepath.Join(dir, "in")
	writeInput(t, inputDir, "a.jsonl",
		`{"q": "atrial fibrillation noted"}
{"q": "unrelated"}
`)
	writeInput(t, inputDir, "b.txt", "long line mentioning coronary artery disease\n")

	m := buildMatcher(t, "atrial fibrillation", "coronary artery")
	wet, err := runExtract(t, m, defaultOpts(inputDir, filepath.Join(dir, "real.jsonl")))
	require.NoError(t, err)

	dryOut := filepath.Join(dir, "never-created.jsonl")
	dryOpts := defaultOpts(inputDir, dryOut)
	dryOpts.DryRun = true
	dry, err := runExtract(t, m, dryOpts)
	require.NoError(t, err)

	assert.Equal(t, wet.FilesScanned, dry.FilesScanned)
	assert.Equal(t, wet.RecordsScanned, dry.RecordsScanned)
	assert.Equal(t, wet.RecordsMatched, dry.RecordsMatched)
	_, statErr := os.Stat(dryOut)
	assert.True(t, os.IsNotExist(statErr), "dry run must not create output")
}

func TestExtractor_SingleFileInput(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "only.jsonl", `{"q": "NSTEMI ruled out"}`+"\n")
	output := filepath.Join(dir, "out.jsonl")

	res, err := runExtract(t, buildMatcher(t, "NSTEMI"), defaultOpts(input, output))
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesScanned)
	assert.Equal(t, 1, res.RecordsMatched)
}

func TestExtractor_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "a.jsonl", `{"q": "cardiac"}`+"\n")
	output := filepath.Join(dir, "out.jsonl")

	e, err := New(buildMatcher(t, "cardiac"), defaultOpts(dir, output), quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Add(t *testing.T) {
	a := Result{FilesScanned: 1, RecordsScanned: 2, RecordsMatched: 1}
	b := Result{FilesScanned: 2, RecordsScanned: 5, RecordsMatched: 3}
	a.Add(&b)
	assert.Equal(t, Result{FilesScanned: 3, RecordsScanned: 7, RecordsMatched: 4}, a)
}

func TestOptions_Normalize(t *testing.T) {
	o := Options{Extensions: []string{"JSONL", " .Txt ", "", "json"}}
	o.Normalize()
	assert.Equal(t, []string{".jsonl", ".txt", ".json"}, o.Extensions)
	assert.Equal(t, DefaultMaxFlattenItems, o.MaxFlattenItems)
	assert.Equal(t, DefaultMaxHitsPerRecord, o.MaxHitsPerRecord)
}
