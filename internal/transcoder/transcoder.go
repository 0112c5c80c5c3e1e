package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"media-indexer/internal/logging"
)

var (
	// ErrTimeout marks an invocation that exceeded the gateway timeout.
	// Termination of the external process is best-effort.
	ErrTimeout = errors.New("transcoder: invocation timed out")

	// ErrSegmentTooLong means the effective duration cannot fit even
	// one full preview segment.
	ErrSegmentTooLong = errors.New("transcoder: segment longer than effective duration")
)

// Gateway runs ffmpeg and ffprobe as one process per operation. It
// keeps no state between calls, so any number of invocations may be in
// flight at once.
type Gateway struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
}

// New creates a gateway. Empty binary paths fall back to PATH lookup,
// a zero timeout falls back to five minutes.
func New(ffmpeg, ffprobe string, timeout time.Duration) *Gateway {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if ffprobe == "" {
		ffprobe = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Gateway{ffmpeg: ffmpeg, ffprobe: ffprobe, timeout: timeout}
}

// run executes one external invocation under the gateway timeout and
// returns its stdout. A deadline overrun maps to ErrTimeout so callers
// can tell it apart from a nonzero exit.
func (g *Gateway) run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logging.Trace("running %s %s", bin, strings.Join(args, " "))
	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w: %s after %s", ErrTimeout, bin, g.timeout)
	}
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w - %s", bin, err, firstLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	// ffmpeg writes its banner to stderr; the useful line is the last.
	if i := strings.LastIndexByte(s, '\n'); i != -1 {
		s = s[i+1:]
	}
	return s
}

// Info is the technical shape of one media file. Fields the probe
// output does not carry stay at their zero values.
type Info struct {
	DurationMS      int64   `json:"durationMs"`
	Width           int64   `json:"width"`
	Height          int64   `json:"height"`
	FPS             float64 `json:"fps"`
	BitRate         int64   `json:"bitRate"`
	VideoCodec      string  `json:"videoCodec"`
	AudioCodec      string  `json:"audioCodec"`
	ContainerFormat string  `json:"containerFormat"`
}

type probeOutput struct {
	Format struct {
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
		FormatName string `json:"format_name"`
	} `json:"format"`
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int64  `json:"width"`
		Height       int64  `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe reads format and stream facts for one file.
func (g *Gateway) Probe(ctx context.Context, path string) (Info, error) {
	out, err := g.run(ctx, g.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return Info{}, err
	}

	var po probeOutput
	if err := json.Unmarshal(out, &po); err != nil {
		return Info{}, fmt.Errorf("failed to parse probe output for %s: %w", path, err)
	}

	var info Info
	if secs, err := strconv.ParseFloat(po.Format.Duration, 64); err == nil {
		info.DurationMS = int64(secs * 1000)
	}
	if br, err := strconv.ParseInt(po.Format.BitRate, 10, 64); err == nil {
		info.BitRate = br
	}
	// format_name is a comma list like "mov,mp4,m4a"; keep the first.
	name, _, _ := strings.Cut(po.Format.FormatName, ",")
	info.ContainerFormat = name

	for _, s := range po.Streams {
		switch s.CodecType {
		case "video":
			if info.VideoCodec != "" {
				continue
			}
			info.VideoCodec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			info.FPS = parseFrameRate(s.AvgFrameRate)
			if info.FPS == 0 {
				info.FPS = parseFrameRate(s.RFrameRate)
			}
		case "audio":
			if info.AudioCodec == "" {
				info.AudioCodec = s.CodecName
			}
		}
	}
	return info, nil
}

// parseFrameRate turns ffprobe's "30000/1001" rationals into a float.
// "0/0" and malformed input yield 0.
func parseFrameRate(r string) float64 {
	num, den, found := strings.Cut(r, "/")
	if !found {
		f, _ := strconv.ParseFloat(r, 64)
		return f
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
