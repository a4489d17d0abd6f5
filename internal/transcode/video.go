package transcode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"photovault/internal/logging"
	"photovault/internal/mediatypes"
	"photovault/internal/metrics"
)

// Engine wraps the external codec capabilities behind one value so the
// pipeline can inject a fake in tests.
type Engine struct{}

// NewEngine returns a transcoding engine using libvips for images and the
// ffmpeg/ffprobe binaries for video.
func NewEngine() *Engine {
	return &Engine{}
}

// videoCRF maps a preset to the x264 constant-rate-factor. Higher CRF
// compresses harder, mirroring the image tiers.
func videoCRF(preset mediatypes.Preset) string {
	switch preset {
	case mediatypes.PresetMax:
		return "30"
	case mediatypes.PresetHigh:
		return "26"
	default:
		return "23"
	}
}

// VideoResult describes the compressed vault-native video written to disk.
type VideoResult struct {
	Path       string
	Ext        string // always ".mp4"
	Width      int64
	Height     int64
	DurationMs int64
}

// probeOutput mirrors the subset of ffprobe's JSON we consume.
type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int64  `json:"width"`
		Height    int64  `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// TranscodeVideo re-encodes the video at srcPath into H.264/AAC at
// destPath. Rate control is constant-quality with a preset-selected CRF
// and a speed-biased encoder preset.
func (e *Engine) TranscodeVideo(ctx context.Context, srcPath, destPath string, preset mediatypes.Preset) (*VideoResult, error) {
	start := time.Now()
	defer func() {
		metrics.TranscodeDuration.WithLabelValues("video").Observe(time.Since(start).Seconds())
	}()

	result := &VideoResult{Path: destPath, Ext: mediatypes.VaultVideoExt}

	// Probe the source first: dimension and duration metadata comes from
	// the original, and an unreadable input fails fast before encoding.
	if probe, err := e.probeVideo(ctx, srcPath); err != nil {
		logging.Debug("ffprobe failed for %s: %v", srcPath, err)
	} else {
		result.Width = probe.width
		result.Height = probe.height
		result.DurationMs = probe.durationMs
	}

	args := []string{
		"-i", srcPath,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", videoCRF(preset),
		"-c:a", "aac",
		"-b:a", "128k",
		"-movflags", "+faststart",
		"-loglevel", "error",
		"-y",
		destPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Running: %s", cmd.String())
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, videoError("encode", ctx.Err())
		}
		return nil, videoError("encode", fmt.Errorf("%w - %s", err, stderr.String()))
	}

	return result, nil
}

type videoProbe struct {
	width      int64
	height     int64
	durationMs int64
}

// probeVideo runs ffprobe and extracts the video stream dimensions and
// container duration.
func (e *Engine) probeVideo(ctx context.Context, path string) (*videoProbe, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	probe := &videoProbe{}
	for _, stream := range out.Streams {
		if stream.CodecType == "video" {
			probe.width = stream.Width
			probe.height = stream.Height
			break
		}
	}
	if out.Format.Duration != "" {
		if seconds, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil {
			probe.durationMs = int64(seconds * 1000)
		}
	}
	return probe, nil
}
