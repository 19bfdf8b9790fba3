// Package mcp exposes the cardex pipeline over the Model Context
// Protocol, so agent tooling can run extractions and conversions and
// inspect run history without shelling out to the CLI.
//
// Tools: cardex_extract (stage one), cardex_convert (stage two),
// cardex_runs (catalog history). Stdio transport only.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/hurttlocker/cardex/internal/catalog"
	"github.com/hurttlocker/cardex/internal/convert"
	"github.com/hurttlocker/cardex/internal/extract"
	"github.com/hurttlocker/cardex/internal/keyword"
)

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Catalog catalog.Catalog // optional run history
	Version string
	Tag     string // default tag for cardex_convert
}

// runMu serializes tool calls: the pipeline is deliberately
// single-threaded, and the catalog's SQLite file allows one writer.
var runMu sync.Mutex

// NewServer creates a configured MCP server with all cardex tools.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}

	s := server.NewMCPServer(
		"Cardex",
		ver,
		server.WithToolCapabilities(false),
	)

	registerExtractTool(s, cfg)
	registerConvertTool(s, cfg)
	registerRunsTool(s, cfg)
	return s
}

// Serve runs the server on stdio until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// quietLogger keeps pipeline warnings off the stdio transport.
func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func registerExtractTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("cardex_extract",
		mcp.WithDescription("Scan a file or directory of medical QA records (.jsonl/.json/.txt) and extract heart-disease related records to a JSONL file with provenance metadata."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("File or directory to scan"),
		),
		mcp.WithString("output",
			mcp.Description("Destination JSONL path (required unless dry_run)"),
		),
		mcp.WithString("language",
			mcp.Description("Built-in keyword set: en, zh, or both (default: both)"),
			mcp.Enum("en", "zh", "both"),
		),
		mcp.WithString("keywords",
			mcp.Description("Comma-separated keyword override; replaces the built-in sets"),
		),
		mcp.WithNumber("max_records",
			mcp.Description("Stop after scanning N records total (0 = no limit)"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Scan and count without writing output (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runMu.Lock()
		defer runMu.Unlock()

		input, err := req.RequireString("input")
		if err != nil {
			return mcp.NewToolResultError("input is required"), nil
		}

		lang := keyword.LangBoth
		if l, err := req.RequireString("language"); err == nil && l != "" {
			lang = keyword.Language(l)
			if !keyword.ValidLanguage(lang) {
				return mcp.NewToolResultError(fmt.Sprintf("invalid language: %s", l)), nil
			}
		}

		var list []string
		if raw, err := req.RequireString("keywords"); err == nil && strings.TrimSpace(raw) != "" {
			list = strings.Split(raw, ",")
		} else {
			list = keyword.Defaults(lang)
		}
		matcher, cleaned := keyword.Build(list)
		if len(cleaned) == 0 {
			return mcp.NewToolResultError("no usable keywords"), nil
		}

		opts := extract.Options{
			Input:      input,
			Extensions: []string{".jsonl", ".json", ".txt"},
		}
		if out, err := req.RequireString("output"); err == nil {
			opts.Output = out
		}
		if mr, err := req.RequireFloat("max_records"); err == nil && mr > 0 {
			opts.MaxRecords = int(mr)
		}
		if dry, err := req.RequireBool("dry_run"); err == nil {
			opts.DryRun = dry
		}
		opts.ExcludeFields = []string{"meta_info"}

		if !opts.DryRun && strings.TrimSpace(opts.Output) == "" {
			return mcp.NewToolResultError("output is required unless dry_run is set"), nil
		}

		e, err := extract.New(matcher, opts, quietLogger())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("configuration error: %v", err)), nil
		}
		res, err := e.Run(ctx)
		recordRun(ctx, cfg.Catalog, &catalog.Run{
			Stage:          catalog.StageExtract,
			Input:          input,
			Output:         opts.Output,
			DryRun:         opts.DryRun,
			KeywordCount:   len(cleaned),
			FilesScanned:   res.FilesScanned,
			RecordsScanned: res.RecordsScanned,
			RecordsMatched: res.RecordsMatched,
			Status:         statusOf(err),
			Error:          errString(err),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("extraction error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(map[string]any{
			"files_scanned":   res.FilesScanned,
			"records_scanned": res.RecordsScanned,
			"records_matched": res.RecordsMatched,
			"output":          opts.Output,
			"dry_run":         opts.DryRun,
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerConvertTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("cardex_convert",
		mcp.WithDescription("Convert extracted MCQ records (stage-one JSONL) into the evaluation schema: Knowledge, Question, Answer, Prediction, Tag."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("Stage-one JSONL file"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Destination evaluation JSONL path"),
		),
		mcp.WithString("tag",
			mcp.Description("Tag stamped on every record (default: Cardio-MedQA)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runMu.Lock()
		defer runMu.Unlock()

		input, err := req.RequireString("input")
		if err != nil {
			return mcp.NewToolResultError("input is required"), nil
		}
		output, err := req.RequireString("output")
		if err != nil {
			return mcp.NewToolResultError("output is required"), nil
		}

		tag := cfg.Tag
		if tg, err := req.RequireString("tag"); err == nil && tg != "" {
			tag = tg
		}

		res, err := convert.Run(ctx, convert.Options{Input: input, Output: output, Tag: tag}, quietLogger())
		status := statusOf(err)
		run := &catalog.Run{
			Stage:  catalog.StageConvert,
			Input:  input,
			Output: output,
			Status: status,
			Error:  errString(err),
		}
		if res != nil {
			run.RecordsMatched = res.RecordsConverted
		}
		recordRun(ctx, cfg.Catalog, run)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("conversion error: %v", err)), nil
		}

		data, _ := json.MarshalIndent(map[string]any{
			"records_converted": res.RecordsConverted,
			"lines_skipped":     res.LinesSkipped,
			"output":            output,
			"tag":               tag,
		}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerRunsTool(s *server.MCPServer, cfg ServerConfig) {
	tool := mcp.NewTool("cardex_runs",
		mcp.WithDescription("List recent pipeline runs recorded in the catalog, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of runs to return (default: 20, max: 100)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runMu.Lock()
		defer runMu.Unlock()

		if cfg.Catalog == nil {
			return mcp.NewToolResultError("run catalog is not configured"), nil
		}

		limit := 20
		if l, err := req.RequireFloat("limit"); err == nil && l > 0 {
			limit = int(l)
			if limit > 100 {
				limit = 100
			}
		}

		runs, err := cfg.Catalog.ListRuns(ctx, limit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("catalog error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(runs, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

// recordRun writes run history if a catalog is configured. Failures
// are swallowed here: history is a convenience, the tool result is the
// source of truth for the caller.
func recordRun(ctx context.Context, c catalog.Catalog, r *catalog.Run) {
	if c == nil {
		return
	}
	_ = c.RecordRun(ctx, r)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return catalog.StatusOK
	case errors.Is(err, context.Canceled):
		return catalog.StatusInterrupted
	default:
		return catalog.StatusFailed
	}
}

func errString(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
