package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hurttlocker/cardex/internal/catalog"
	"github.com/hurttlocker/cardex/internal/config"
)

func buildRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(config.ResolveOptions{ConfigPath: configPath, CLICatalog: catalogPath})
			if err != nil {
				return err
			}
			c, err := catalog.Open(catalog.Config{DBPath: cfg.CatalogDB.Value})
			if err != nil {
				return fmt.Errorf("opening run catalog: %w", err)
			}
			defer c.Close()

			runs, err := c.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("No runs recorded yet.")
				return nil
			}
			for _, r := range runs {
				printRun(r)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func buildStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate statistics for recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Resolve(config.ResolveOptions{ConfigPath: configPath, CLICatalog: catalogPath})
			if err != nil {
				return err
			}
			c, err := catalog.Open(catalog.Config{DBPath: cfg.CatalogDB.Value})
			if err != nil {
				return fmt.Errorf("opening run catalog: %w", err)
			}
			defer c.Close()

			st, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Total runs:      %d\n", st.TotalRuns)
			fmt.Printf("Extract runs:    %d\n", st.ExtractRuns)
			fmt.Printf("Convert runs:    %d\n", st.ConvertRuns)
			fmt.Printf("Failed runs:     %d\n", st.FailedRuns)
			fmt.Printf("Records matched: %d\n", st.RecordsMatched)
			return nil
		},
	}
}

func printRun(r *catalog.Run) {
	when := r.StartedAt.Local().Format(time.DateTime)
	line := fmt.Sprintf("%s  %-7s  %-11s  scanned=%d matched=%d",
		when, r.Stage, r.Status, r.RecordsScanned, r.RecordsMatched)
	if r.DryRun {
		line += "  (dry run)"
	}
	fmt.Println(line)
	if r.Error != "" {
		fmt.Printf("    error: %s\n", r.Error)
	}
}

// recordCatalogRun stores run history. The catalog is a convenience,
// so failures here log a warning instead of failing the run.
func recordCatalogRun(cfg config.ResolvedConfig, r *catalog.Run) {
	c, err := catalog.Open(catalog.Config{DBPath: cfg.CatalogDB.Value})
	if err != nil {
		log.WithError(err).Warn("run catalog unavailable, history not recorded")
		return
	}
	defer c.Close()
	if err := c.RecordRun(context.Background(), r); err != nil {
		log.WithError(err).Warn("failed to record run history")
	}
}

func runStatus(err error) string {
	switch {
	case err == nil:
		return catalog.StatusOK
	case errors.Is(err, context.Canceled):
		return catalog.StatusInterrupted
	default:
		return catalog.StatusFailed
	}
}

func runErrString(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
