// Package frames loads and paces pose landmark frames.
package frames

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/verte-zerg/formcoach/internal/model"
)

// ErrEmpty is returned when a recording holds no frames.
var ErrEmpty = errors.New("frame recording is empty")

const maxLineSize = 1 << 20

// LoadFile reads one JSON frame per line from the provided file path.
func LoadFile(path string) ([]model.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only recording.
			_ = cerr
		}
	}()
	return Decode(file)
}

// Decode parses JSON lines. Blank lines and lines starting with # are
// skipped.
func Decode(r io.Reader) ([]model.Frame, error) {
	var frames []model.Frame
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var frame model.Frame
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			return nil, fmt.Errorf("failed to parse frame at line %d: %w", lineNo, err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, ErrEmpty
	}
	return frames, nil
}

// Encode writes frames as JSON lines.
func Encode(w io.Writer, frames []model.Frame) error {
	enc := json.NewEncoder(w)
	for i, frame := range frames {
		if err := enc.Encode(frame); err != nil {
			return fmt.Errorf("failed to encode frame %d: %w", i, err)
		}
	}
	return nil
}
