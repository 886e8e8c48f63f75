// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import (
	"fmt"
	"os"
	"time"
)

const (
	// MaxFPS bounds the preview rate.
	MaxFPS = 30

	DefaultCommandTimeout     = 5 * time.Second
	DefaultStatusPollInterval = time.Second
)

// Config describes the camera process surface.
type Config struct {
	FPS         int
	PreviewPath string
	StatusPath  string
	FIFOPath    string
	MediaDir    string

	// StatusPollInterval backs up file notifications. Zero disables polling.
	StatusPollInterval time.Duration
	// CommandTimeout bounds a single pipe write, not the operation.
	CommandTimeout time.Duration
	// TransientSuffixes overrides DefaultTransientSuffixes when non-nil.
	TransientSuffixes []string
}

// Validate checks value ranges and that every path is set.
func (c Config) Validate() error {
	if c.FPS <= 0 || c.FPS > MaxFPS {
		return invalidField("fps", "must be in (0, %d], got %d", MaxFPS, c.FPS)
	}
	for _, p := range c.paths() {
		if p.value == "" {
			return invalidField(p.field, "is required")
		}
	}
	if c.StatusPollInterval < 0 {
		return invalidField("statusPollInterval", "must not be negative")
	}
	if c.CommandTimeout < 0 {
		return invalidField("commandTimeout", "must not be negative")
	}
	return nil
}

// CheckPaths verifies that every configured path exists.
func (c Config) CheckPaths() error {
	for _, p := range c.paths() {
		info, err := os.Stat(p.value)
		if err != nil {
			return invalidField(p.field, "%s does not exist", p.value)
		}
		if p.dir && !info.IsDir() {
			return invalidField(p.field, "%s is not a directory", p.value)
		}
	}
	return nil
}

type pathField struct {
	field string
	value string
	dir   bool
}

func (c Config) paths() []pathField {
	return []pathField{
		{field: "previewPath", value: c.PreviewPath},
		{field: "statusPath", value: c.StatusPath},
		{field: "fifoPath", value: c.FIFOPath},
		{field: "mediaDir", value: c.MediaDir, dir: true},
	}
}

func (c Config) withDefaults() Config {
	if c.CommandTimeout == 0 {
		c.CommandTimeout = DefaultCommandTimeout
	}
	if c.TransientSuffixes == nil {
		c.TransientSuffixes = DefaultTransientSuffixes
	}
	return c
}

func (c Config) String() string {
	return fmt.Sprintf("fps=%d preview=%s status=%s fifo=%s media=%s",
		c.FPS, c.PreviewPath, c.StatusPath, c.FIFOPath, c.MediaDir)
}
