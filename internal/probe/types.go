package probe

import "strings"

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	FormatName string  // Comma-separated demuxer names, e.g. "mov,mp4,m4a".
	Duration   float64 // Seconds.
}

// VideoStream holds the parsed properties of a single video stream.
type VideoStream struct {
	Codec         string
	Width         int
	Height        int
	IsAttachedPic bool
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Codec string
}

// ProbeResult is the parsed output of a single ffprobe JSON call.
// PrimaryVideo is the first non-attached-pic video stream (nil if none).
type ProbeResult struct {
	Format       FormatInfo
	PrimaryVideo *VideoStream
	AudioStreams []AudioStream
}

// HasVideo reports whether the file carries a real (non cover-art) video stream.
func (p *ProbeResult) HasVideo() bool { return p.PrimaryVideo != nil }

// Container returns the first demuxer name, or "" when ffprobe gave none.
func (p *ProbeResult) Container() string {
	name, _, _ := strings.Cut(p.Format.FormatName, ",")
	return name
}

// PrimaryAudioCodec returns the codec of the first audio stream, or "".
func (p *ProbeResult) PrimaryAudioCodec() string {
	if len(p.AudioStreams) == 0 {
		return ""
	}
	return p.AudioStreams[0].Codec
}
