package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/hurttlocker/cardex/internal/catalog"
	"github.com/hurttlocker/cardex/internal/config"
	"github.com/hurttlocker/cardex/internal/extract"
	"github.com/hurttlocker/cardex/internal/keyword"
	"github.com/hurttlocker/cardex/internal/source"
)

func buildExtractCmd() *cobra.Command {
	var (
		input            string
		output           string
		encoding         string
		extensions       string
		language         string
		keywords         string
		minLineLength    int
		maxFlattenItems  int
		fields           string
		includeMetaInfo  bool
		maxHitsPerRecord int
		maxRecords       int
		dryRun           bool
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Scan raw datasets and extract heart-disease related records",
		Long: `Scan a file or directory for records matching heart-disease keywords
and write the matches to a JSONL file, each stamped with provenance
metadata (source path, line, matched keywords).

Interrupting with Ctrl-C stops the scan cleanly; counts gathered so
far are still reported.`,
		Example: `  # Scan the default data root with built-in keywords
  cardex extract --output out/matches.jsonl

  # English keywords only, capped at 10000 records
  cardex extract --input data/raw --output out/matches.jsonl --language en --max-records 10000

  # Count matches without writing anything
  cardex extract --input data/raw --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(extractParams{
				input:            input,
				output:           output,
				encoding:         encoding,
				extensions:       extensions,
				language:         language,
				keywords:         keywords,
				minLineLength:    minLineLength,
				maxFlattenItems:  maxFlattenItems,
				fields:           fields,
				includeMetaInfo:  includeMetaInfo,
				maxHitsPerRecord: maxHitsPerRecord,
				maxRecords:       maxRecords,
				dryRun:           dryRun,
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "File or directory to scan (default: configured data root)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination JSONL file")
	cmd.Flags().StringVar(&encoding, "encoding", "", "Input text encoding, IANA name (default: UTF-8)")
	cmd.Flags().StringVar(&extensions, "extensions", ".jsonl,.json,.txt", "Comma-separated extensions to scan")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Built-in keyword set: en, zh, or both (default: both)")
	cmd.Flags().StringVarP(&keywords, "keywords", "k", "", "Comma-separated keywords; overrides the built-in sets")
	cmd.Flags().IntVar(&minLineLength, "min-line-length", source.DefaultMinLineLength, "Minimum trimmed length for .txt line records")
	cmd.Flags().IntVar(&maxFlattenItems, "max-flatten-items", extract.DefaultMaxFlattenItems, "Cap on text fragments per record")
	cmd.Flags().StringVar(&fields, "fields", "", "Comma-separated top-level fields to match and keep")
	cmd.Flags().BoolVar(&includeMetaInfo, "include-meta-info", false, "Keep the meta_info field instead of dropping it")
	cmd.Flags().IntVar(&maxHitsPerRecord, "max-hits-per-record", extract.DefaultMaxHitsPerRecord, "Cap on recorded keyword hits per matched record")
	cmd.Flags().IntVar(&maxRecords, "max-records", 0, "Stop after scanning this many records (0 = unlimited)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Scan and count without writing output")

	return cmd
}

type extractParams struct {
	input            string
	output           string
	encoding         string
	extensions       string
	language         string
	keywords         string
	minLineLength    int
	maxFlattenItems  int
	fields           string
	includeMetaInfo  bool
	maxHitsPerRecord int
	maxRecords       int
	dryRun           bool
}

func runExtract(p extractParams) error {
	cfg, err := config.Resolve(config.ResolveOptions{
		ConfigPath:  configPath,
		CLIInput:    p.input,
		CLILanguage: p.language,
		CLICatalog:  catalogPath,
	})
	if err != nil {
		return err
	}

	lang := keyword.Language(cfg.Language.Value)
	if !keyword.ValidLanguage(lang) {
		return fmt.Errorf("invalid language %q (want en, zh, or both)", cfg.Language.Value)
	}

	list := assembleKeywords(p.keywords, lang, cfg)
	matcher, cleaned := keyword.Build(list)
	if len(cleaned) == 0 {
		return extract.ErrNoKeywords
	}

	opts := extract.Options{
		Input:            cfg.DataRoot.Value,
		Output:           p.output,
		Extensions:       splitList(p.extensions),
		Encoding:         p.encoding,
		MinLineLength:    p.minLineLength,
		MaxFlattenItems:  p.maxFlattenItems,
		MaxHitsPerRecord: p.maxHitsPerRecord,
		MaxRecords:       p.maxRecords,
		IncludeFields:    splitList(p.fields),
		DryRun:           p.dryRun,
	}
	if !p.includeMetaInfo {
		opts.ExcludeFields = []string{"meta_info"}
	}
	if !opts.DryRun && strings.TrimSpace(opts.Output) == "" {
		return fmt.Errorf("--output is required unless --dry-run is set")
	}

	e, err := extract.New(matcher, opts, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"input":    opts.Input,
		"keywords": len(cleaned),
		"dry_run":  opts.DryRun,
	}).Debug("starting extraction")

	res, runErr := e.Run(ctx)
	recordCatalogRun(cfg, &catalog.Run{
		Stage:          catalog.StageExtract,
		Input:          opts.Input,
		Output:         opts.Output,
		DryRun:         opts.DryRun,
		KeywordCount:   len(cleaned),
		FilesScanned:   res.FilesScanned,
		RecordsScanned: res.RecordsScanned,
		RecordsMatched: res.RecordsMatched,
		Status:         runStatus(runErr),
		Error:          runErrString(runErr),
	})

	printExtractSummary(res, opts)

	switch {
	case runErr == nil:
		return nil
	case errors.Is(runErr, context.Canceled):
		return fmt.Errorf("interrupted")
	default:
		return runErr
	}
}

// assembleKeywords picks the keyword list: an explicit --keywords value
// wins outright, then per-language lists from the config file, then
// the built-in defaults.
func assembleKeywords(flagValue string, lang keyword.Language, cfg config.ResolvedConfig) []string {
	if strings.TrimSpace(flagValue) != "" {
		return splitList(flagValue)
	}

	var list []string
	if lang == keyword.LangEN || lang == keyword.LangBoth {
		if len(cfg.KeywordsEN) > 0 {
			list = append(list, cfg.KeywordsEN...)
		} else {
			list = append(list, keyword.DefaultEN...)
		}
	}
	if lang == keyword.LangZH || lang == keyword.LangBoth {
		if len(cfg.KeywordsZH) > 0 {
			list = append(list, cfg.KeywordsZH...)
		} else {
			list = append(list, keyword.DefaultZH...)
		}
	}
	return list
}

func printExtractSummary(res *extract.Result, opts extract.Options) {
	fmt.Printf("Files scanned:   %d\n", res.FilesScanned)
	fmt.Printf("Records scanned: %d\n", res.RecordsScanned)
	fmt.Printf("Records matched: %d\n", res.RecordsMatched)
	if opts.DryRun {
		fmt.Println("Dry run: no output written")
	} else {
		fmt.Printf("Output:          %s\n", opts.Output)
	}
}

// splitList parses a comma-separated flag value, dropping empty items.
func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
