package controller

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultVolume is the volume used when no state file exists yet.
const DefaultVolume = 0.35

// ControllerState is the durable slice of player state: the volume and
// the now-playing song. It is rewritten after every volume change and
// every song change.
type ControllerState struct {
	Path       string
	Volume     float64
	NowPlaying uuid.UUID
}

func newControllerState(path string) ControllerState {
	return ControllerState{Path: path, Volume: DefaultVolume}
}

// readControllerState loads the state file at path. A missing or
// unparsable file yields defaults.
func readControllerState(path string) ControllerState {
	state := newControllerState(path)

	f, err := os.Open(path)
	if err != nil {
		return state
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "volume":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				state.Volume = clampVolume(v)
			}
		case "now_playing":
			if id, err := uuid.Parse(value); err == nil {
				state.NowPlaying = id
			}
		}
	}

	return state
}

// write stores the state atomically next to its destination.
func (s ControllerState) write() error {
	if s.Path == "" {
		return nil
	}
	os.MkdirAll(filepath.Dir(s.Path), 0o755)

	tmp := s.Path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "volume=%s\n", strconv.FormatFloat(s.Volume, 'f', -1, 64))
	fmt.Fprintf(w, "now_playing=%s\n", s.NowPlaying)

	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, s.Path)
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
