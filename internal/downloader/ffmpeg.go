package downloader

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/scx/internal/shared"
)

// losslessPattern matches probe codec names that warrant a flac re-encode
// instead of a stream copy.
var losslessPattern = regexp.MustCompile(`^(alac|ape|flac|pcm_(f|s|u).+)$`)

// IsLossless reports whether codec names a lossless encoding.
func IsLossless(codec string) bool {
	return losslessPattern.MatchString(codec)
}

// Transcoder is the subprocess surface the engine needs: codec probing,
// stream copies, flac encoding, and segment concatenation.
type Transcoder interface {
	Probe(ctx context.Context, path string) (string, error)
	Copy(ctx context.Context, src, dst string, dropVideo bool) error
	EncodeFLAC(ctx context.Context, src, dst string, level int) error
	Concat(ctx context.Context, segments []string, dst string) error
}

// FFmpeg shells out to ffmpeg and ffprobe. It implements [Transcoder] and the
// tag package's remux contract.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
}

// NewFFmpeg locates both binaries on PATH.
func NewFFmpeg() (*FFmpeg, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("%w: ffmpeg not found on PATH", shared.ErrTranscoderMissing)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe not found on PATH", shared.ErrTranscoderMissing)
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}, nil
}

// Probe returns the codec name of the first audio stream in path.
func (f *FFmpeg) Probe(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, f.ffprobePath,
		"-v", "quiet", "-print_format", "json", "-show_streams", path).Output()
	if err != nil {
		return "", fmt.Errorf("%w: ffprobe failed on %s: %v", shared.ErrTranscodeFailed, path, err)
	}

	var payload struct {
		Streams []struct {
			CodecName string `json:"codec_name"`
			CodecType string `json:"codec_type"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return "", fmt.Errorf("failed to decode ffprobe output: %w", err)
	}

	for _, s := range payload.Streams {
		if s.CodecType == "audio" {
			return s.CodecName, nil
		}
	}
	return "", fmt.Errorf("%w: no audio stream in %s", shared.ErrTranscodeFailed, path)
}

// Copy stream-copies src into dst's container. dropVideo strips embedded
// artwork and other video streams.
func (f *FFmpeg) Copy(ctx context.Context, src, dst string, dropVideo bool) error {
	args := []string{"-nostdin", "-y", "-i", src}
	if dropVideo {
		args = append(args, "-vn")
	}
	args = append(args, "-c", "copy", dst)
	return f.run(ctx, args)
}

// EncodeFLAC re-encodes src into a flac file at the given compression level.
func (f *FFmpeg) EncodeFLAC(ctx context.Context, src, dst string, level int) error {
	return f.run(ctx, []string{
		"-nostdin", "-y", "-i", src, "-vn",
		"-compression_level", strconv.Itoa(level), dst,
	})
}

// Concat joins segment files into dst with a stream copy, in slice order.
func (f *FFmpeg) Concat(ctx context.Context, segments []string, dst string) error {
	return f.run(ctx, []string{
		"-nostdin", "-y",
		"-i", "concat:" + strings.Join(segments, "|"),
		"-c", "copy", dst,
	})
}

// WriteMetadata stream-copies src to dst with container-level metadata pairs.
func (f *FFmpeg) WriteMetadata(ctx context.Context, src, dst string, tags map[string]string) error {
	args := []string{"-nostdin", "-y", "-i", src}
	for key, value := range tags {
		args = append(args, "-metadata", key+"="+value)
	}
	args = append(args, "-c", "copy", dst)
	return f.run(ctx, args)
}

func (f *FFmpeg) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: ffmpeg writing %s: %v", shared.ErrTranscodeFailed, args[len(args)-1], err)
	}
	return nil
}
