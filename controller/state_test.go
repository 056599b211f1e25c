package controller

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestStateDefaults(t *testing.T) {
	state := readControllerState(filepath.Join(t.TempDir(), "state"))
	require.Equal(t, DefaultVolume, state.Volume)
	require.Equal(t, uuid.Nil, state.NowPlaying)
}

func TestStateRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")

	state := newControllerState(path)
	state.Volume = 0.7
	state.NowPlaying = uuid.New()
	require.NoError(t, state.write())

	got := readControllerState(path)
	require.Equal(t, 0.7, got.Volume)
	require.Equal(t, state.NowPlaying, got.NowPlaying)
}

func TestStateClampsVolumeOnRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(path, []byte("volume=3.5\nnow_playing=\n"), 0o644))

	got := readControllerState(path)
	require.Equal(t, 1.0, got.Volume)
}

func TestStateSurvivesGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.WriteFile(path, []byte("!!!\nvolume=x\nnow_playing=notauuid\n"), 0o644))

	got := readControllerState(path)
	require.Equal(t, DefaultVolume, got.Volume)
	require.Equal(t, uuid.Nil, got.NowPlaying)
}

func TestStateFileIsHumanReadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	state := newControllerState(path)
	require.NoError(t, state.write())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "volume=0.35\nnow_playing=00000000-0000-0000-0000-000000000000\n", string(data))
}
