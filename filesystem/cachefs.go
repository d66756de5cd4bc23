package filesystem

import (
	"io"
	"os"
)

// CacheFs routes gache persistence through the active afero backend,
// so catalog pages land in the in-memory filesystem under tests.
type CacheFs struct{}

func (CacheFs) OpenFile(path string, flag int, mode os.FileMode) (io.ReadWriteCloser, error) {
	file, err := API().OpenFile(path, flag, mode)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (CacheFs) MkdirAll(dir string, mode os.FileMode) error {
	return API().MkdirAll(dir, mode)
}
