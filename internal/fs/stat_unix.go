//go:build unix

package fs

import (
	"fmt"
	"io/fs"
	"syscall"
	"time"
)

// changeTime extracts the metadata-change time (ctime) from a FileInfo.
// Returns an error if the underlying Sys() type is not *syscall.Stat_t,
// which would happen with mock filesystems that don't provide real stat data.
func changeTime(info fs.FileInfo) (time.Time, error) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, fmt.Errorf("cannot extract stat data: expected *syscall.Stat_t, got %T", info.Sys())
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec), nil
}
