// Package media classifies files by extension into the kinds the converter
// knows how to handle.
package media

import (
	"path/filepath"
	"strings"
)

// Kind is the media category of a file.
type Kind int

const (
	Unsupported Kind = iota
	Video
	Audio
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	default:
		return "unsupported"
	}
}

var videoExts = map[string]bool{
	"mpg": true,
	"mp4": true,
	"avi": true,
	"mov": true,
	"wmv": true,
}

var audioExts = map[string]bool{
	"mp3":  true,
	"wav":  true,
	"flac": true,
	"ogg":  true,
}

// Ext returns the lowercase extension of path without the leading dot.
func Ext(path string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
}

// Classify maps path to a Kind by its extension, case-insensitively.
// Files without an extension are Unsupported.
func Classify(path string) Kind {
	ext := Ext(path)
	switch {
	case videoExts[ext]:
		return Video
	case audioExts[ext]:
		return Audio
	default:
		return Unsupported
	}
}
