package main

import (
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/backmassage/rockola/internal/catalog"
	"github.com/backmassage/rockola/internal/launcher"
)

func newCatalogCommand(configFlag *string) *cobra.Command {
	var outPath string
	var withLauncher bool
	var goos string

	cmd := &cobra.Command{
		Use:   "catalog <music_root>",
		Short: "Build the player's song database from a genre/artist/file tree",
		Args:  cobra.ExactArgs(1),
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

			root := args[0]
			if err := requireDir(root, "music folder"); err != nil {
				return err
			}
			songs, err := catalog.Build(root)
			if err != nil {
				return err
			}
			if err := catalog.WriteFile(outPath, songs); err != nil {
				return err
			}
			log.Success("Catalog written to %s", outPath)
			log.Info("Songs listed: %d", len(songs))

			if !withLauncher {
				return nil
			}
			script, err := launcher.Write(filepath.Dir(outPath), goos, root)
			if err != nil {
				return err
			}
			log.Success("Start script %s updated with MUSIC_DIR=%s", script, root)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", catalog.DefaultFile, "Catalog file to write")
	cmd.Flags().BoolVar(&withLauncher, "launcher", false, "Also write the start script next to the catalog")
	cmd.Flags().StringVar(&goos, "os", runtime.GOOS, "Target platform for the start script (linux | windows)")
	return cmd
}

func newLauncherCommand(configFlag *string) *cobra.Command {
	var dir string
	var goos string

	cmd := &cobra.Command{
		Use:   "launcher <music_root>",
		Short: "Write the player start script pointing MUSIC_DIR at music_root",
		Args:  cobra.ExactArgs(1),
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

			script, err := launcher.Write(dir, goos, args[0])
			if err != nil {
				return err
			}
			log.Success("Start script %s updated with MUSIC_DIR=%s", script, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to write the script into")
	cmd.Flags().StringVar(&goos, "os", runtime.GOOS, "Target platform (linux | windows)")
	return cmd
}
