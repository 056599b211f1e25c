//go:build !cgo
// +build !cgo

package lib

import (
	"github.com/sirupsen/logrus"

	"github.com/dreyvitch/cadence/player"
)

func New(log logrus.FieldLogger) (p player.UnsupportedBackend) { return }
