package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Environment variables consulted after the config file.
const (
	EnvSource = "ROCKOLA_SOURCE"
	EnvDest   = "ROCKOLA_DEST"
)

// fileConfig mirrors Config for TOML decoding. Pointer fields distinguish
// "absent" from a zero value so the file only overrides what it names.
type fileConfig struct {
	SourceDir     *string `toml:"source_dir"`
	DestDir       *string `toml:"dest_dir"`
	Workers       *int    `toml:"workers"`
	FFmpegBin     *string `toml:"ffmpeg_bin"`
	FFprobeBin    *string `toml:"ffprobe_bin"`
	VideoExt      *string `toml:"video_ext"`
	AudioExt      *string `toml:"audio_ext"`
	TargetCodec   *string `toml:"target_codec"`
	EncoderMode   *string `toml:"encoder_mode"`
	GPUEncoder    *string `toml:"gpu_encoder"`
	GPUPreset     *string `toml:"gpu_preset"`
	CPUEncoder    *string `toml:"cpu_encoder"`
	CPUPreset     *string `toml:"cpu_preset"`
	AudioEncoder  *string `toml:"audio_encoder"`
	EncodeTimeout *string `toml:"encode_timeout"`
	ProbeTimeout  *string `toml:"probe_timeout"`
	DryRun        *bool   `toml:"dry_run"`
	LockDest      *bool   `toml:"lock_dest"`
	JournalPath   *string `toml:"journal_path"`
	Verbose       *bool   `toml:"verbose"`
	ShowProgress  *bool   `toml:"show_progress"`
	Color         *string `toml:"color"`
	LogFile       *string `toml:"log_file"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/rockola/config.toml")
}

// Load overlays the configuration file at path (or the default locations
// when path is empty) and then the environment onto cfg. It returns the
// resolved file path and whether a file was actually read. A missing file
// is not an error.
func Load(cfg *Config, path string) (string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return "", false, err
	}

	if exists {
		file, err := os.Open(resolved)
		if err != nil {
			return "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		var fc fileConfig
		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&fc); err != nil {
			return "", false, fmt.Errorf("parse config %s: %w", resolved, err)
		}
		if err := fc.apply(cfg); err != nil {
			return "", false, fmt.Errorf("config %s: %w", resolved, err)
		}
	}

	applyEnv(cfg)
	return resolved, exists, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.SourceDir, fc.SourceDir)
	setString(&cfg.DestDir, fc.DestDir)
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	setString(&cfg.FFmpegBin, fc.FFmpegBin)
	setString(&cfg.FFprobeBin, fc.FFprobeBin)
	setString(&cfg.VideoExt, fc.VideoExt)
	setString(&cfg.AudioExt, fc.AudioExt)
	setString(&cfg.TargetCodec, fc.TargetCodec)
	if fc.EncoderMode != nil {
		cfg.EncoderMode = EncoderMode(strings.ToLower(strings.TrimSpace(*fc.EncoderMode)))
	}
	setString(&cfg.GPUEncoder, fc.GPUEncoder)
	setString(&cfg.GPUPreset, fc.GPUPreset)
	setString(&cfg.CPUEncoder, fc.CPUEncoder)
	setString(&cfg.CPUPreset, fc.CPUPreset)
	setString(&cfg.AudioEncoder, fc.AudioEncoder)
	if err := setDuration(&cfg.EncodeTimeout, fc.EncodeTimeout, "encode_timeout"); err != nil {
		return err
	}
	if err := setDuration(&cfg.ProbeTimeout, fc.ProbeTimeout, "probe_timeout"); err != nil {
		return err
	}
	setBool(&cfg.DryRun, fc.DryRun)
	setBool(&cfg.LockDest, fc.LockDest)
	setString(&cfg.JournalPath, fc.JournalPath)
	setBool(&cfg.Verbose, fc.Verbose)
	setBool(&cfg.ShowProgress, fc.ShowProgress)
	if fc.Color != nil {
		cfg.ColorMode = ColorMode(strings.ToLower(strings.TrimSpace(*fc.Color)))
	}
	setString(&cfg.LogFile, fc.LogFile)
	return nil
}

// applyEnv lets ROCKOLA_SOURCE and ROCKOLA_DEST stand in for the positional
// arguments.
func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvSource)); v != "" {
		cfg.SourceDir = NormalizeDirArg(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvDest)); v != "" {
		cfg.DestDir = NormalizeDirArg(v)
	}
}

func setString(dst *string, v *string) {
	if v != nil && strings.TrimSpace(*v) != "" {
		*dst = strings.TrimSpace(*v)
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	raw := strings.TrimSpace(*v)
	if raw == "" {
		*dst = 0
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("rockola.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// ExpandPath resolves a leading "~" and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes the sample configuration file to path, creating its
// parent directory.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
