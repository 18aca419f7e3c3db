//go:build linux

package filesystem

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the closest thing Linux exposes to a creation time:
// the inode change time. Falls back to the modification time when the raw
// stat structure is unavailable.
func createdTime(info os.FileInfo) time.Time {
	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
	}
	return info.ModTime()
}
