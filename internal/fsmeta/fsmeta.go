// Package fsmeta reads filesystem metadata with owner and group resolved
// to names through the user database, falling back to numeric IDs when no
// name is known.
package fsmeta

import (
	"fmt"
	"io/fs"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"syscall"
	"time"
)

type Meta struct {
	Name        string
	Owner       string
	Group       string
	IsDirectory bool
	Size        int64
	Mode        fs.FileMode
	ModTime     time.Time
}

// Stat describes the entry at path. A missing path keeps fs.ErrNotExist
// in the error chain for callers to map.
func Stat(path string) (*Meta, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", filepath.Base(path), err)
	}
	return fromInfo(info), nil
}

// List describes every entry of the directory at path in name order.
func List(path string) ([]*Meta, error) {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", filepath.Base(path), err)
	}
	metas := make([]*Meta, 0, len(dirEntries))
	for _, de := range dirEntries {
		info, err := de.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info.
			continue
		}
		metas = append(metas, fromInfo(info))
	}
	return metas, nil
}

func fromInfo(info fs.FileInfo) *Meta {
	meta := &Meta{
		Name:        info.Name(),
		IsDirectory: info.IsDir(),
		Size:        info.Size(),
		Mode:        info.Mode(),
		ModTime:     info.ModTime(),
	}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		meta.Owner = lookupUser(st.Uid)
		meta.Group = lookupGroup(st.Gid)
	}
	return meta
}

func lookupUser(uid uint32) string {
	id := strconv.FormatUint(uint64(uid), 10)
	u, err := user.LookupId(id)
	if err != nil {
		return id
	}
	return u.Username
}

func lookupGroup(gid uint32) string {
	id := strconv.FormatUint(uint64(gid), 10)
	g, err := user.LookupGroupId(id)
	if err != nil {
		return id
	}
	return g.Name
}
