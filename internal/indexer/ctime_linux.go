//go:build linux

package indexer

import (
	"io/fs"
	"syscall"

	"golang.org/x/sys/unix"
)

// ctime returns the file's birth time. Filesystems that do not record one
// report the inode change time instead.
func ctime(path string, info fs.FileInfo) int64 {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_STATX_SYNC_AS_STAT, unix.STATX_BTIME, &stx)
	if err == nil && stx.Mask&unix.STATX_BTIME != 0 {
		return stx.Btime.Sec
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return int64(st.Ctim.Sec)
	}
	return info.ModTime().Unix()
}
