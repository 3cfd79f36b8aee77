package pipeline

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/backmassage/rockola/internal/config"
	"github.com/backmassage/rockola/internal/display"
	"github.com/backmassage/rockola/internal/fileutil"
	"github.com/backmassage/rockola/internal/logging"
	"github.com/backmassage/rockola/internal/media"
	"github.com/backmassage/rockola/internal/probe"
)

// Inventory summarizes a source tree without converting anything.
type Inventory struct {
	Files       int
	Bytes       int64
	Duration    time.Duration // summed over every file ffprobe could read
	ByKind      map[media.Kind]int
	ByExt       map[string]int
	Containers  map[string]int // first demuxer name -> count
	VideoCodecs map[string]int // primary video codec -> count ("?" when probing failed)
	Resolutions map[string]int // "WxH" of the primary video stream -> count
	AudioCodecs map[string]int // first audio codec of audio files -> count ("?" when probing failed)
	Compatible  int            // videos already in the target codec
}

// Scan discovers the files under cfg.SourceDir, classifies each one, and
// probes every audio and video file. When w is non-nil a table report is
// written to it.
func Scan(ctx context.Context, cfg *config.Config, log *logging.Logger, prober *probe.Prober, w io.Writer) (*Inventory, error) {
	files, err := Discover(cfg.SourceDir, func(path string, err error) {
		log.Warn("Skipping unreadable %s: %v", path, err)
	})
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}
	inv := &Inventory{
		Files:       len(files),
		ByKind:      make(map[media.Kind]int),
		ByExt:       make(map[string]int),
		Containers:  make(map[string]int),
		VideoCodecs: make(map[string]int),
		Resolutions: make(map[string]int),
		AudioCodecs: make(map[string]int),
	}
	if len(files) == 0 {
		log.Warn("No files found in %s", cfg.SourceDir)
		return inv, nil
	}
	log.Info("Scanning %d files in %s", len(files), cfg.SourceDir)

	for _, path := range files {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			return inv, ctx.Err()
		}
		kind := media.Classify(path)
		inv.ByKind[kind]++
		inv.ByExt[media.Ext(path)]++
		inv.Bytes += fileutil.Size(path)
		if kind == media.Unsupported {
			continue
		}

		pr, err := prober.Probe(ctx, path)
		if err != nil {
			log.Debug(cfg.Verbose, "Probe failed for %s: %v", path, err)
			if kind == media.Video {
				inv.VideoCodecs["?"]++
			} else {
				inv.AudioCodecs["?"]++
			}
			continue
		}
		inv.Duration += time.Duration(pr.Format.Duration * float64(time.Second))
		if c := pr.Container(); c != "" {
			inv.Containers[c]++
		}

		if kind == media.Audio {
			codec := pr.PrimaryAudioCodec()
			if codec == "" {
				codec = "?"
			}
			inv.AudioCodecs[codec]++
			continue
		}
		if !pr.HasVideo() {
			log.Debug(cfg.Verbose, "No video stream in %s", path)
			inv.VideoCodecs["?"]++
			continue
		}
		v := pr.PrimaryVideo
		inv.VideoCodecs[v.Codec]++
		if v.Width > 0 && v.Height > 0 {
			inv.Resolutions[fmt.Sprintf("%dx%d", v.Width, v.Height)]++
		}
		if probe.CodecMatches(v.Codec, cfg.TargetCodec) {
			inv.Compatible++
		}
	}

	if w != nil {
		fmt.Fprintln(w, renderInventory(inv))
	}
	log.Info("%d video, %d audio, %d unsupported (%s, %s playing time); %d video already %s",
		inv.ByKind[media.Video], inv.ByKind[media.Audio], inv.ByKind[media.Unsupported],
		display.FormatBytes(inv.Bytes), display.FormatDuration(inv.Duration), inv.Compatible, cfg.TargetCodec)
	return inv, nil
}

func renderInventory(inv *Inventory) string {
	var rows [][]string
	for _, ext := range sortedKeys(inv.ByExt) {
		label := ext
		if label == "" {
			label = "(none)"
		}
		rows = append(rows, []string{"." + label, media.Classify("x." + ext).String(), fmt.Sprint(inv.ByExt[ext])})
	}
	for _, c := range sortedKeys(inv.Containers) {
		rows = append(rows, []string{"container " + c, "", fmt.Sprint(inv.Containers[c])})
	}
	for _, codec := range sortedKeys(inv.VideoCodecs) {
		rows = append(rows, []string{"codec " + codec, "video", fmt.Sprint(inv.VideoCodecs[codec])})
	}
	for _, res := range sortedKeys(inv.Resolutions) {
		rows = append(rows, []string{"size " + res, "video", fmt.Sprint(inv.Resolutions[res])})
	}
	for _, codec := range sortedKeys(inv.AudioCodecs) {
		rows = append(rows, []string{"codec " + codec, "audio", fmt.Sprint(inv.AudioCodecs[codec])})
	}
	return display.RenderTable([]string{"Type", "Kind", "Files"}, rows,
		[]display.Align{display.AlignLeft, display.AlignLeft, display.AlignRight})
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
