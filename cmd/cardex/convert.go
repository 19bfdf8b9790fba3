package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/cardex/internal/catalog"
	"github.com/hurttlocker/cardex/internal/config"
	"github.com/hurttlocker/cardex/internal/convert"
)

func buildConvertCmd() *cobra.Command {
	var (
		input  string
		output string
		tag    string
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert extracted records into the evaluation schema",
		Long: `Read a stage-one JSONL file of extracted MCQ records and write the
evaluation schema: Knowledge, Question, Answer, Prediction, Tag.

Knowledge is derived from each record's source path. Lines that are
not valid MCQ records are skipped with a warning.`,
		Example: `  cardex convert --input out/matches.jsonl --output out/eval.jsonl
  cardex convert -i out/matches.jsonl -o out/eval.jsonl --tag MyEvalSet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(input, output, tag)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Stage-one JSONL file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination evaluation JSONL file")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", `Tag stamped on every record (default "Cardio-MedQA")`)
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runConvert(input, output, tag string) error {
	cfg, err := config.Resolve(config.ResolveOptions{
		ConfigPath: configPath,
		CLITag:     tag,
		CLICatalog: catalogPath,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, runErr := convert.Run(ctx, convert.Options{
		Input:  input,
		Output: output,
		Tag:    cfg.Tag.Value,
	}, log)

	run := &catalog.Run{
		Stage:  catalog.StageConvert,
		Input:  input,
		Output: output,
		Status: runStatus(runErr),
		Error:  runErrString(runErr),
	}
	if res != nil {
		run.RecordsMatched = res.RecordsConverted
	}
	recordCatalogRun(cfg, run)

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) {
			return fmt.Errorf("interrupted")
		}
		return runErr
	}

	fmt.Printf("Records converted: %d\n", res.RecordsConverted)
	if res.LinesSkipped > 0 {
		fmt.Printf("Lines skipped:     %d\n", res.LinesSkipped)
	}
	fmt.Printf("Output:            %s\n", output)
	return nil
}
