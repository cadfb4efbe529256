package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
)

// ErrUnsupportedSource is returned when a source's duration cannot be probed
// locally.
var ErrUnsupportedSource = errors.New("unsupported audio source")

// ProbeDuration reads the length in seconds of a local WAV file. Paths may be
// plain or use the file:// scheme.
func ProbeDuration(src string) (float64, error) {
	path := strings.TrimPrefix(src, "file://")
	if path == "" || strings.Contains(path, "://") || strings.ToLower(filepath.Ext(path)) != ".wav" {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedSource, src)
	}

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open audio: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("not a valid WAV file: %s", path)
	}
	dur, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("read WAV duration: %w", err)
	}
	return dur.Seconds(), nil
}
