package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/display"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(configFlag))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := config.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve config path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := strings.TrimSpace(*configFlag)
			cfg, resolved, err := config.Resolve(path, cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if resolved != "" {
				fmt.Fprintf(out, "Config path: %s\n", resolved)
			}
			rows := [][]string{
				{"source_dir", cfg.SourceDir},
				{"dest_dir", cfg.DestDir},
				{"workers", strconv.Itoa(cfg.Workers)},
				{"encoder_mode", string(cfg.EncoderMode)},
				{"gpu_encoder", cfg.GPUEncoder + " -preset " + cfg.GPUPreset},
				{"cpu_encoder", cfg.CPUEncoder + " -preset " + cfg.CPUPreset},
				{"audio_encoder", cfg.AudioEncoder},
				{"outputs", "." + cfg.VideoExt + " / ." + cfg.AudioExt},
				{"target_codec", cfg.TargetCodec},
				{"encode_timeout", durationOrNone(cfg.EncodeTimeout.String(), cfg.EncodeTimeout == 0)},
				{"probe_timeout", cfg.ProbeTimeout.String()},
				{"lock_dest", strconv.FormatBool(cfg.LockDest)},
				{"journal_path", cfg.JournalPath},
				{"log_file", cfg.LogFile},
			}
			fmt.Fprintln(out, display.RenderTable([]string{"Setting", "Value"}, rows, nil))
			return nil
		},
	}
	bindConfigFlags(cmd)
	return cmd
}

func durationOrNone(s string, none bool) string {
	if none {
		return "none"
	}
	return s
}
