package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/backmassage/rockola/internal/check"
	"github.com/backmassage/rockola/internal/display"
)

func newCheckCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg, ffprobe, and the configured encoders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configFlag)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			out := cmd.OutOrStdout()
			display.PrintBanner(out)
			results := check.RunCheck(cfg, log)

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, r := range results {
				status := "ok"
				if !r.OK {
					status = "FAIL"
					failed++
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			fmt.Fprintln(out, display.RenderTable([]string{"Check", "Status", "Detail"}, rows, nil))

			if err := check.CheckDeps(cfg, log); err != nil {
				return fmt.Errorf("not ready for mode %s: %w", cfg.EncoderMode, err)
			}
			if failed > 0 {
				log.Warn("%d optional check(s) failed; mode %s can still run", failed, cfg.EncoderMode)
			} else {
				log.Success("All checks passed")
			}
			return nil
		},
	}
	bindConfigFlags(cmd)
	return cmd
}
