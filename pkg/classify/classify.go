/*
Package classify determines the filesystem type of a single path without
reading its content.

The classifier reports exactly what the metadata call returned. A failed call
comes back as an error; a successful call that yields a type the caller cannot
handle comes back as Unknown with a nil error. Some platforms report a denied
search permission on an ancestor directory as the latter rather than the
former, so callers must decide how to treat Unknown themselves.

Basic usage:

	c := classify.New(afero.NewOsFs())
	kind, err := c.Classify("/usr/share/dbwalk/db")
*/
package classify

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Classification is the filesystem type of a path.
type Classification int

const (
	// Unknown is a type the walker cannot handle (device, socket, pipe, or a
	// type the platform could not determine)
	Unknown Classification = iota
	// Regular is a regular file
	Regular
	// Directory is a directory
	Directory
	// SymbolicLink is a symbolic link that has not been followed
	SymbolicLink
)

func (c Classification) String() string {
	switch c {
	case Regular:
		return "regular"
	case Directory:
		return "directory"
	case SymbolicLink:
		return "symlink"
	default:
		return "unknown"
	}
}

// Classifier determines the type of a single path.
type Classifier interface {
	// Classify returns the type of path. The error, when non-nil, is the
	// unmodified error of the metadata call.
	Classify(path string) (Classification, error)
}

type classifier struct {
	fs afero.Fs
}

// New returns a Classifier backed by fs. Links are not followed when fs
// implements afero.Lstater.
func New(fs afero.Fs) Classifier {
	return &classifier{fs: fs}
}

func (c *classifier) Classify(path string) (Classification, error) {
	info, err := lstat(c.fs, path)
	if err != nil {
		return Unknown, err
	}
	return FromMode(info.Mode()), nil
}

// FromMode maps a file mode onto a Classification.
func FromMode(mode os.FileMode) Classification {
	switch {
	case mode&os.ModeSymlink != 0:
		return SymbolicLink
	case mode.IsDir():
		return Directory
	case mode.IsRegular():
		return Regular
	default:
		return Unknown
	}
}

func lstat(fs afero.Fs, path string) (os.FileInfo, error) {
	if l, ok := fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fs.Stat(path)
}

// Readlink resolves one level of the link at path. Relative targets are
// joined to the directory holding the link.
func Readlink(fs afero.Fs, path string) (string, error) {
	r, ok := fs.(afero.LinkReader)
	if !ok {
		return "", &os.PathError{Op: "readlink", Path: path, Err: afero.ErrNoReadlink}
	}

	target, err := r.ReadlinkIfPossible(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), nil
}
