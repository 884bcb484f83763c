//go:build darwin

package indexer

import (
	"io/fs"
	"syscall"
)

// ctime returns the file's birth time.
func ctime(_ string, info fs.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return int64(st.Birthtimespec.Sec)
	}
	return info.ModTime().Unix()
}
