package main

import (
	"github.com/spf13/cobra"

	"github.com/backmassage/rockola/internal/pipeline"
	"github.com/backmassage/rockola/internal/probe"
)

func newScanCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [source_dir]",
		Short: "Report what a conversion would find, without writing anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, configFlag)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.SourceDir = args[0]
			}
			if err := requireDir(cfg.SourceDir, "source directory"); err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Close()

			prober := probe.New(cfg, nil)
			_, err = pipeline.Scan(cmd.Context(), cfg, log, prober, cmd.OutOrStdout())
			return err
		},
	}
	bindConfigFlags(cmd)
	return cmd
}
