package player

import (
	"errors"
	"time"
)

var ErrNotSupported = errors.New("backend is not available, you will need to compile from source")

// UnsupportedBackend stands in when no real backend could be built.
type UnsupportedBackend struct {
}

func (u UnsupportedBackend) Init() error                 { return ErrNotSupported }
func (u UnsupportedBackend) LoadNew(string) error        { return ErrNotSupported }
func (u UnsupportedBackend) Play() error                 { return ErrNotSupported }
func (u UnsupportedBackend) Pause() error                { return ErrNotSupported }
func (u UnsupportedBackend) Stop() error                 { return ErrNotSupported }
func (u UnsupportedBackend) SeekTo(time.Duration) error  { return ErrNotSupported }
func (u UnsupportedBackend) SetVolume(float64) error     { return ErrNotSupported }
func (u UnsupportedBackend) Volume() float64             { return 0 }
func (u UnsupportedBackend) State() State                { return StateStopped }
func (u UnsupportedBackend) Positions() <-chan Position  { return nil }
func (u UnsupportedBackend) Finished() <-chan struct{}   { return nil }
func (u UnsupportedBackend) Close() error                { return nil }
