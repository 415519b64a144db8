// Package store holds the source-tree backends behind ports.SourceStore.
package store

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"esmigrate/internal/core/errors"
	"esmigrate/internal/shared/util"
)

// Disk reads and writes the real file system.
type Disk struct {
	perm fs.FileMode
}

func NewDisk() *Disk {
	return &Disk{perm: 0o644}
}

func (d *Disk) ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", wrapFSError(err, path, "read")
	}
	return string(data), nil
}

func (d *Disk) WriteFile(path, content string) error {
	if err := util.WriteStringWithDirs(path, content, d.perm); err != nil {
		return wrapFSError(err, path, "write")
	}
	return nil
}

func (d *Disk) Remove(path string) error {
	if err := os.Remove(path); err != nil {
		return wrapFSError(err, path, "remove")
	}
	return nil
}

func (d *Disk) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (d *Disk) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (d *Disk) ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, wrapFSError(err, root, "walk")
	}
	sort.Strings(files)
	return files, nil
}

func wrapFSError(err error, path, op string) error {
	code := errors.CodeInternal
	switch {
	case os.IsNotExist(err):
		code = errors.CodeNotFound
	case os.IsPermission(err):
		code = errors.CodePermissionDenied
	}
	wrapped := errors.Wrap(err, code, op+" failed")
	wrapped = errors.AddContext(wrapped, errors.CtxOperation, op)
	return errors.AddContext(wrapped, errors.CtxPath, path)
}
