package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/display"
	"github.com/backmassage/rockola/internal/journal"
)

func newHistoryCommand(configFlag *string) *cobra.Command {
	var journalPath string
	var limit int
	var runID string
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past batches recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configFlag)
			if err != nil {
				return err
			}
			if cfg.JournalPath == "" {
				return errors.New("no journal configured (set journal_path or pass --journal)")
			}
			path, err := config.ExpandPath(cfg.JournalPath)
			if err != nil {
				return err
			}
			store, err := journal.Open(path)
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if runID != "" {
				files, err := store.Outcomes(cmd.Context(), runID, failedOnly)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderFiles(files))
				return nil
			}
			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "Journal file (overrides journal_path)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "List the files of one run")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "With --run, list only failures")
	return cmd
}

func renderRuns(runs []journal.RunRecord) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		finished := "-"
		if !r.FinishedAt.IsZero() {
			finished = display.FormatDuration(r.FinishedAt.Sub(r.StartedAt))
		}
		mode := r.EncoderMode
		if r.DryRun {
			mode += " (dry run)"
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			finished,
			mode,
			strconv.Itoa(r.Total),
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.Omitted),
			strconv.Itoa(r.Errors),
		})
	}
	return display.RenderTable(
		[]string{"Run", "Started", "Took", "Mode", "Total", "Processed", "Omitted", "Errors"},
		rows,
		[]display.Align{
			display.AlignLeft, display.AlignLeft, display.AlignRight, display.AlignLeft,
			display.AlignRight, display.AlignRight, display.AlignRight, display.AlignRight,
		},
	)
}

func renderFiles(files []journal.FileRecord) string {
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{f.Source, f.Label, f.Detail, display.FormatDuration(f.Elapsed)})
	}
	return display.RenderTable([]string{"Source", "Outcome", "Detail", "Took"}, rows,
		[]display.Align{display.AlignLeft, display.AlignLeft, display.AlignLeft, display.AlignRight})
}
