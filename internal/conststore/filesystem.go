// Package conststore is the disk-backed constant/rule-definition store
// that backs rules.Engine's ConstantStore collaborator (§6). It is
// adapted from the teacher's internal/storage/rule_store_disk.go: the
// same FileSystem injection seam, the same marshal-to-temp-then-rename
// persistence, generalised from one rule-by-ID map to two maps (constants
// by code, rule definitions by code).
package conststore

import "os"

// FileSystem abstracts OS filesystem operations so tests can exercise
// persistence without touching disk.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	Stat(path string) (os.FileInfo, error)
}

// RealFileSystem implements FileSystem using actual OS calls.
type RealFileSystem struct{}

func (fs *RealFileSystem) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (fs *RealFileSystem) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

func (fs *RealFileSystem) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

func (fs *RealFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *RealFileSystem) Remove(path string) error { return os.Remove(path) }

func (fs *RealFileSystem) Stat(path string) (os.FileInfo, error) { return os.Stat(path) }
