package store

import "strings"

// isConflict reports whether err is a SQLite concurrency error (SQLITE_BUSY
// or "database is locked"). These show up under call-end bursts, when several
// trainees hang up at once, and warrant a single retry.
func isConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
