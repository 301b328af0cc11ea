// Package fsutil provides the filesystem helpers QuickFT's request
// processor needs: existence checks, parent-directory creation, copy,
// delete, and path containment. It is built on github.com/spf13/afero so
// tests can run against an in-memory filesystem instead of touching disk.
package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DirMode is the permission mode used for every directory QuickFT creates.
const DirMode = 0o700

// FS bundles an afero.Fs with the helpers below. The zero value is not
// usable; construct one with NewOS or NewMem.
type FS struct {
	afero.Fs
}

// NewOS returns an FS backed by the real operating-system filesystem.
func NewOS() FS {
	return FS{Fs: afero.NewOsFs()}
}

// NewMem returns an FS backed by an in-memory filesystem, for tests.
func NewMem() FS {
	return FS{Fs: afero.NewMemMapFs()}
}

// Exists reports whether path names an existing file, regardless of size.
// It does not error on a missing path; it reports false.
func (fs FS) Exists(path string) (bool, error) {
	_, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("fsutil: stat %s: %w", path, err)
	}
	return true, nil
}

// HasContent reports whether path names an existing regular file of size >
// 0. FILE_RCV treats a missing-or-empty file the same way (FILE_NOT_FOUND);
// every other check (FILE_DEL, the SEND backup-before-overwrite check) uses
// the plain existence check above instead.
func (fs FS) HasContent(path string) (bool, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("fsutil: stat %s: %w", path, err)
	}
	return info.Mode().IsRegular() && info.Size() > 0, nil
}

// MkdirAllFor ensures the parent directory of path exists, creating any
// missing parents at DirMode.
func (fs FS) MkdirAllFor(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "/" {
		return nil
	}
	if err := fs.MkdirAll(dir, DirMode); err != nil {
		return fmt.Errorf("fsutil: mkdir -p %s: %w", dir, err)
	}
	return nil
}

// CopyFile copies src to dst, overwriting dst if it already exists.
func (fs FS) CopyFile(src, dst string) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("fsutil: open %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.Create(dst)
	if err != nil {
		return fmt.Errorf("fsutil: create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("fsutil: copy %s to %s: %w", src, dst, err)
	}
	return nil
}

// RemoveFile deletes path. It is not an error for path to already be gone.
func (fs FS) RemoveFile(path string) error {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("fsutil: remove %s: %w", path, err)
	}
	return nil
}

// SafeJoin resolves rel against root and verifies the result stays within
// root: rel must not be an absolute path, and must not contain a ".."
// segment that escapes root once cleaned. It rejects both before ever
// touching the filesystem, per the protocol's path-safety requirement for
// filenames and paths taken off the wire.
func SafeJoin(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("fsutil: empty path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("fsutil: path %q must not be absolute", rel)
	}
	cleanRel := filepath.Clean(rel)
	if cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("fsutil: path %q escapes the configured root", rel)
	}
	joined := filepath.Join(root, cleanRel)
	cleanRoot := filepath.Clean(root)
	if joined != cleanRoot && !strings.HasPrefix(joined, cleanRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("fsutil: path %q escapes the configured root", rel)
	}
	return joined, nil
}
