//go:build darwin

package filesystem

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the file birth time on Darwin, falling back to the
// modification time when the raw stat structure is unavailable.
func createdTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok && stat.Birthtimespec.Sec != 0 {
		return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
	}
	return info.ModTime()
}
