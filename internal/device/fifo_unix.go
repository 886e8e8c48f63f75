// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package device

import (
	"errors"
	"os"
	"syscall"
)

func openFIFO(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_APPEND|syscall.O_NONBLOCK, 0)
}

func isNoReader(err error) bool {
	return errors.Is(err, syscall.ENXIO)
}
