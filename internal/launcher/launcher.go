// Package launcher writes the start script that exports MUSIC_DIR and
// starts the jukebox player.
package launcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupportedOS is returned for platforms without a start script.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// Script returns the file name and content of the start script for goos
// ("linux" or "windows"). On Windows forward slashes in musicDir become
// backslashes.
func Script(goos, musicDir string) (name, content string, err error) {
	switch strings.ToLower(goos) {
	case "windows":
		dir := strings.ReplaceAll(musicDir, "/", `\`)
		return "start-rockola.bat", "@echo off\n" +
			"title Rockola Digital\n" +
			"\n" +
			":: Music library root\n" +
			"set MUSIC_DIR=" + dir + "\n" +
			"\n" +
			":: Start the player\n" +
			"npx electron main.js\n" +
			"\n" +
			":: Keep the window open to show errors\n" +
			"pause\n", nil
	case "linux":
		return "start-rockola.sh", "#!/bin/bash\n" +
			"# Rockola Digital Startup Script\n" +
			"\n" +
			"export MUSIC_DIR=\"" + musicDir + "\"\n" +
			"\n" +
			"# Start the player\n" +
			"npx electron main.js &\n" +
			"\n" +
			"echo \"Rockola started. Press Ctrl+C to quit.\"\n" +
			"wait\n", nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
	}
}

// Write creates or replaces the start script in dir and returns its path.
// The Linux script is made executable.
func Write(dir, goos, musicDir string) (string, error) {
	name, content, err := Script(goos, musicDir)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	if strings.HasSuffix(name, ".sh") {
		if err := os.Chmod(path, 0o755); err != nil {
			return "", err
		}
	}
	return path, nil
}
