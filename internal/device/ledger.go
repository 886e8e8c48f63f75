// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package device

import "strings"

// DefaultTransientSuffixes name files the camera writes and later replaces,
// such as raw .h264 streams that are boxed into .mp4.
var DefaultTransientSuffixes = []string{".h264", ".part", ".tmp", "~"}

// Ledger is the ordered set of files created since the last Reset.
// It is owned by the camera loop and is not safe for concurrent use.
type Ledger struct {
	paths    []string
	seen     map[string]struct{}
	excluded []string
}

// NewLedger returns an empty ledger that ignores paths ending in any of the
// given suffixes.
func NewLedger(excludedSuffixes ...string) *Ledger {
	return &Ledger{
		seen:     make(map[string]struct{}),
		excluded: append([]string(nil), excludedSuffixes...),
	}
}

// Reset forgets every recorded path.
func (l *Ledger) Reset() {
	l.paths = nil
	clear(l.seen)
}

// Record adds path unless it is excluded or already present. It reports
// whether the path was added.
func (l *Ledger) Record(path string) bool {
	if path == "" || l.Excludes(path) {
		return false
	}
	if _, ok := l.seen[path]; ok {
		return false
	}
	l.seen[path] = struct{}{}
	l.paths = append(l.paths, path)
	return true
}

// Excludes reports whether path carries a transient suffix.
func (l *Ledger) Excludes(path string) bool {
	for _, suffix := range l.excluded {
		if suffix != "" && strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the recorded paths in insertion order.
// The result is never nil.
func (l *Ledger) Snapshot() []string {
	out := make([]string, len(l.paths))
	copy(out, l.paths)
	return out
}

// Len returns the number of recorded paths.
func (l *Ledger) Len() int { return len(l.paths) }
