package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/logging"
)

// loadConfig resolves the effective configuration for cmd: defaults, the
// config file, the environment, and then whatever flags the user set.
func loadConfig(cmd *cobra.Command, configFlag *string) (*config.Config, error) {
	path := ""
	if configFlag != nil {
		path = strings.TrimSpace(*configFlag)
	}
	cfg, _, err := config.Resolve(path, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindConfigFlags registers the shared conversion flags on cmd. Values land
// in a throwaway Config and are replayed by loadConfig.
func bindConfigFlags(cmd *cobra.Command) {
	scratch := config.DefaultConfig()
	config.BindFlags(cmd.Flags(), &scratch)
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	return log, nil
}

// absPath returns the absolute, symlink-resolved path of an existing file or
// directory.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// resolvePath is absPath for a path that may not exist yet: the deepest
// existing ancestor is resolved and the missing tail is appended.
func resolvePath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	var tail []string
	cur := abs
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, tail...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs, nil
		}
		tail = append([]string{filepath.Base(cur)}, tail...)
		cur = parent
	}
}

// requireDir reports an error unless path is an existing directory.
func requireDir(path, what string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s not found: %s", what, path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %s", what, path)
	}
	return nil
}
