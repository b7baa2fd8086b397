package testutils

import (
	"path/filepath"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
)

// ModelFileSystem creates an in-memory file system populated with
// the given files, usable as injectable file system for loaders and
// commands under test.
func ModelFileSystem(files map[string]string) (vfs.FileSystem, error) {
	fs := memoryfs.New()
	for path, content := range files {
		dir := filepath.Dir(path)
		if dir != "" && dir != "." && dir != "/" {
			if err := fs.MkdirAll(dir, 0o700); err != nil {
				return nil, err
			}
		}
		if err := vfs.WriteFile(fs, path, []byte(content), 0o600); err != nil {
			return nil, err
		}
	}
	return fs, nil
}
