//go:build !linux && !darwin

package indexer

import "io/fs"

func ctime(_ string, info fs.FileInfo) int64 {
	return info.ModTime().Unix()
}
