// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"io"
	"os"
	"testing"

	"github.com/ManuGH/picam/internal/log"
)

func TestMain(m *testing.M) {
	log.Configure(log.Config{Level: "error", Output: io.Discard})
	os.Exit(m.Run())
}
