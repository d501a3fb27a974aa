//go:build !linux

package fsops

import (
	"io/fs"
	"time"
)

func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}

func accessTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}

func rawMode(info fs.FileInfo) uint32 {
	return uint32(info.Mode())
}
