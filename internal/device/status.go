// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import "strings"

// Status is the textual state the camera process publishes in its status file.
// Values outside the known set are kept verbatim.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusHalted    Status = "halted"
	StatusReady     Status = "ready"
	StatusVideo     Status = "video"
	StatusTimelapse Status = "timelapse"
	StatusImage     Status = "image"
	StatusBoxing    Status = "boxing"
	StatusMDReady   Status = "md_ready"
	StatusMDVideo   Status = "md_video"
	StatusMDBoxing  Status = "md_boxing"
)

var knownStatuses = map[Status]struct{}{
	StatusHalted:    {},
	StatusReady:     {},
	StatusVideo:     {},
	StatusTimelapse: {},
	StatusImage:     {},
	StatusBoxing:    {},
	StatusMDReady:   {},
	StatusMDVideo:   {},
	StatusMDBoxing:  {},
}

func (s Status) String() string { return string(s) }

// Known reports whether s is one of the documented device states.
func (s Status) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

// ParseStatus trims raw and converts it to a Status. It returns false for
// empty input, which callers treat as "no observation".
func ParseStatus(raw string) (Status, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", false
	}
	return Status(v), true
}

// is returns a predicate matching exactly one status.
func is(want Status) func(Status) bool {
	return func(s Status) bool { return s == want }
}

// isAny returns a predicate matching any of the given statuses.
func isAny(want ...Status) func(Status) bool {
	return func(s Status) bool {
		for _, w := range want {
			if s == w {
				return true
			}
		}
		return false
	}
}
