// Package source defines the byte-acquisition capabilities used by the
// asset producers and provides OS, io/fs and go-billy backends.
package source

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FileSystem reads whole files by path.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// ByteSource loads named byte blobs, such as icons bundled with an
// application.
type ByteSource interface {
	Load(name string) ([]byte, error)
}

// Locator is implemented by file systems whose files live on the host, so
// that they can be watched for changes.
type Locator interface {
	// HostPath returns the host path backing name, or false if there is
	// none.
	HostPath(name string) (string, bool)
}

// OS reads from the host file system.
type OS struct{}

// ReadFile implements FileSystem.
func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// HostPath implements Locator. Relative names resolve against the working
// directory.
func (OS) HostPath(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	return abs, true
}

type ioFS struct {
	fsys fs.FS
}

// FromFS adapts an io/fs file system. Leading slashes are stripped since
// io/fs paths are always relative.
func FromFS(fsys fs.FS) FileSystem {
	return ioFS{fsys: fsys}
}

func (f ioFS) ReadFile(name string) ([]byte, error) {
	name = path.Clean("/" + name)
	return fs.ReadFile(f.fsys, strings.TrimPrefix(name, "/"))
}

// Billy adapts a go-billy file system.
type Billy struct {
	FS billy.Filesystem
	// Root is the host directory FS is rooted at. Empty means FS is not
	// backed by host files, as with memfs.
	Root string
}

// NewBilly returns a FileSystem over fs.
func NewBilly(fs billy.Filesystem) *Billy {
	return &Billy{FS: fs}
}

// NewLocal returns a go-billy backed FileSystem rooted at dir.
func NewLocal(dir string) *Billy {
	root, err := filepath.Abs(dir)
	if err != nil {
		root = dir
	}
	return &Billy{FS: osfs.New(dir), Root: root}
}

// ReadFile implements FileSystem.
func (b *Billy) ReadFile(path string) ([]byte, error) {
	return util.ReadFile(b.FS, path)
}

// HostPath implements Locator. It reports false when Root is empty.
func (b *Billy) HostPath(name string) (string, bool) {
	if b.Root == "" {
		return "", false
	}
	return filepath.Join(b.Root, filepath.FromSlash(path.Clean("/"+name))), true
}

// Dir is a ByteSource that resolves names under a root directory of a
// FileSystem.
type Dir struct {
	FS   FileSystem
	Root string
}

// Load implements ByteSource.
func (d Dir) Load(name string) ([]byte, error) {
	fsys := d.FS
	if fsys == nil {
		fsys = OS{}
	}
	full := path.Join(d.Root, path.Clean("/"+name))
	data, err := fsys.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("source: load %s: %w", name, err)
	}
	return data, nil
}

// Map is an in-memory ByteSource.
type Map map[string][]byte

// Load implements ByteSource.
func (m Map) Load(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("source: load %s: %w", name, fs.ErrNotExist)
	}
	return data, nil
}
