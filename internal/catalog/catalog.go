// Package catalog builds the song database the jukebox player reads: a JSON
// array with one record per playable file in a genre/artist/file tree.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultFile is the catalog file name the player looks for.
const DefaultFile = "db.json"

// Extensions are the file extensions (lowercase, no dot) listed in the catalog.
var Extensions = map[string]bool{
	"mp3":  true,
	"mp4":  true,
	"avi":  true,
	"mpg":  true,
	"mpeg": true,
}

// Song is one catalog record. Path is relative to the music root and always
// uses forward slashes.
type Song struct {
	ID     string `json:"id"`
	Genre  string `json:"genre"`
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Path   string `json:"path"`
}

// Build scans root/<genre>/<artist>/<file>. Genres, artists, and files are
// visited in sorted order and ids are assigned sequentially from 00001.
// Entries at the wrong depth are ignored.
func Build(root string) ([]Song, error) {
	songs := []Song{}

	genres, err := sortedEntries(root)
	if err != nil {
		return nil, fmt.Errorf("read music root: %w", err)
	}
	for _, genre := range genres {
		genreDir := filepath.Join(root, genre)
		if !isDir(genreDir) {
			continue
		}
		artists, err := sortedEntries(genreDir)
		if err != nil {
			return nil, fmt.Errorf("read genre %q: %w", genre, err)
		}
		for _, artist := range artists {
			artistDir := filepath.Join(genreDir, artist)
			if !isDir(artistDir) {
				continue
			}
			files, err := sortedEntries(artistDir)
			if err != nil {
				return nil, fmt.Errorf("read artist %q: %w", artist, err)
			}
			for _, file := range files {
				if !Listed(file) || isDir(filepath.Join(artistDir, file)) {
					continue
				}
				songs = append(songs, Song{
					ID:     fmt.Sprintf("%05d", len(songs)+1),
					Genre:  norm.NFC.String(genre),
					Artist: norm.NFC.String(artist),
					Title:  norm.NFC.String(strings.TrimSuffix(file, filepath.Ext(file))),
					Path:   path.Join(genre, artist, file),
				})
			}
		}
	}
	return songs, nil
}

// Listed reports whether name has a catalog extension.
func Listed(name string) bool {
	return Extensions[strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))]
}

// Write encodes songs as a JSON array indented with four spaces. Non-ASCII
// text and HTML characters are written as is.
func Write(w io.Writer, songs []Song) error {
	if songs == nil {
		songs = []Song{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(songs); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteFile writes the catalog to path, replacing it atomically.
func WriteFile(path string, songs []Song) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := Write(f, songs); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func sortedEntries(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// isDir follows symlinks, so linked genre or artist folders are scanned.
func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}
