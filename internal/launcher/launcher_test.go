package launcher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScript_Linux(t *testing.T) {
	name, content, err := Script("linux", "/mnt/disk/music")
	require.NoError(t, err)
	assert.Equal(t, "start-rockola.sh", name)
	assert.True(t, strings.HasPrefix(content, "#!/bin/bash\n"))
	assert.Contains(t, content, "export MUSIC_DIR=\"/mnt/disk/music\"\n")
	assert.Contains(t, content, "npx electron main.js &\n")
	assert.True(t, strings.HasSuffix(content, "wait\n"))
}

func TestScript_Windows(t *testing.T) {
	name, content, err := Script("Windows", "D:/Music/Rock")
	require.NoError(t, err)
	assert.Equal(t, "start-rockola.bat", name)
	assert.True(t, strings.HasPrefix(content, "@echo off\ntitle Rockola Digital\n"))
	assert.Contains(t, content, "set MUSIC_DIR=D:\\Music\\Rock\n")
	assert.True(t, strings.HasSuffix(content, "pause\n"))
}

func TestScript_Unsupported(t *testing.T) {
	_, _, err := Script("darwin", "/Music")
	assert.ErrorIs(t, err, ErrUnsupportedOS)
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	p, err := Write(dir, "linux", "/srv/music")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "start-rockola.sh"), p)

	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// Rewriting replaces the previous content.
	_, err = Write(dir, "linux", "/other")
	require.NoError(t, err)
	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `MUSIC_DIR="/other"`)
	assert.NotContains(t, string(data), "/srv/music")
}

func TestWrite_WindowsNotExecutable(t *testing.T) {
	dir := t.TempDir()
	p, err := Write(dir, "windows", `C:\Music`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "start-rockola.bat"), p)
}

func TestWrite_UnsupportedWritesNothing(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(dir, "plan9", "/music")
	require.Error(t, err)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}
