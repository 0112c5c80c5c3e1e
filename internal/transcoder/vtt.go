package transcoder

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Cue maps a playback time range to a pixel rectangle inside the
// sprite image.
type Cue struct {
	StartMS int64 `json:"startMs"`
	EndMS   int64 `json:"endMs"`
	X       int   `json:"x"`
	Y       int   `json:"y"`
	W       int   `json:"w"`
	H       int   `json:"h"`
}

func formatTimestamp(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms%1000)
}

func parseTimestamp(s string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	h, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	m, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	sec, frac, _ := strings.Cut(parts[2], ".")
	secs, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed timestamp %q", s)
	}
	var millis int64
	if frac != "" {
		millis, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed timestamp %q", s)
		}
	}
	return ((h*60+m)*60+secs)*1000 + millis, nil
}

// writeCueFile emits the cues as WebVTT with #xywh fragment targets.
func writeCueFile(path, spriteName string, cues []Cue) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	fmt.Fprint(w, "WEBVTT\n\n")
	for _, c := range cues {
		fmt.Fprintf(w, "%s --> %s\n%s#xywh=%d,%d,%d,%d\n\n",
			formatTimestamp(c.StartMS), formatTimestamp(c.EndMS),
			spriteName, c.X, c.Y, c.W, c.H)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ParseCue reads a cue file in the format writeCueFile emits. Blocks
// without a #xywh directive are skipped.
func ParseCue(path string) ([]Cue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		cues    []Cue
		current *Cue
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.Contains(line, "-->"):
			from, to, _ := strings.Cut(line, "-->")
			start, err := parseTimestamp(from)
			if err != nil {
				return nil, err
			}
			end, err := parseTimestamp(to)
			if err != nil {
				return nil, err
			}
			current = &Cue{StartMS: start, EndMS: end}
		case current != nil && strings.Contains(line, "#xywh="):
			_, geom, _ := strings.Cut(line, "#xywh=")
			nums := strings.Split(geom, ",")
			if len(nums) != 4 {
				return nil, fmt.Errorf("malformed xywh directive %q", line)
			}
			vals := make([]int, 4)
			for i, n := range nums {
				v, err := strconv.Atoi(strings.TrimSpace(n))
				if err != nil {
					return nil, fmt.Errorf("malformed xywh directive %q", line)
				}
				vals[i] = v
			}
			current.X, current.Y, current.W, current.H = vals[0], vals[1], vals[2], vals[3]
			cues = append(cues, *current)
			current = nil
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cues, nil
}
