//go:build !linux && !darwin

package filesystem

import (
	"os"
	"time"
)

// createdTime falls back to the modification time on platforms without a
// portable creation timestamp.
func createdTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
