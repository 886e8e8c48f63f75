// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "github.com/ManuGH/picam/internal/device"

// Device converts the camera section into a device.Config.
func (c CameraConfig) Device() device.Config {
	return device.Config{
		FPS:                c.FPS,
		PreviewPath:        c.PreviewPath,
		StatusPath:         c.StatusPath,
		FIFOPath:           c.FIFOPath,
		MediaDir:           c.MediaDir,
		StatusPollInterval: c.StatusPollInterval,
		CommandTimeout:     c.CommandTimeout,
		TransientSuffixes:  append([]string(nil), c.TransientSuffixes...),
	}
}
