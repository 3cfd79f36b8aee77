// Package naming maps source files to their destination paths and tracks
// which source owns each destination within a run.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/backmassage/rockola/internal/media"
)

// OutputPath mirrors src's path relative to srcRoot under destRoot. Video
// files get the video extension, audio files the audio extension; anything
// else keeps its name. ext values are given without the dot.
//
//	<srcRoot>/Rock/Band/clip.avi  ->  <destRoot>/Rock/Band/clip.mp4
//	<srcRoot>/Rock/Band/song.flac ->  <destRoot>/Rock/Band/song.mp3
func OutputPath(srcRoot, destRoot, src string, kind media.Kind, videoExt, audioExt string) (string, error) {
	rel, err := filepath.Rel(srcRoot, src)
	if err != nil {
		return "", fmt.Errorf("relative path of %q: %w", src, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside source root %q", src, srcRoot)
	}

	switch kind {
	case media.Video:
		rel = ReplaceExt(rel, videoExt)
	case media.Audio:
		rel = ReplaceExt(rel, audioExt)
	}
	return filepath.Join(destRoot, rel), nil
}

// ReplaceExt swaps the final extension of path for ext (no dot).
func ReplaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + ext
}
