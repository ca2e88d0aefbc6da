package classify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

// maxHops bounds link resolution inside SymlinkFs so a cyclic table cannot
// hang path lookups.
const maxHops = 40

// SymlinkFs adds a link table to an in-memory afero.Fs for testing. Each link
// appears in directory listings and reports os.ModeSymlink from
// LstatIfPossible; paths that pass through a link are resolved before they
// reach the wrapped filesystem.
type SymlinkFs struct {
	afero.Fs
	links map[string]string
	mu    sync.RWMutex
}

// NewSymlinkFs wraps fs.
func NewSymlinkFs(fs afero.Fs) *SymlinkFs {
	return &SymlinkFs{
		Fs:    fs,
		links: make(map[string]string),
	}
}

// CreateSymlink records link -> target and leaves a placeholder entry at link
// so the link shows up when its directory is listed.
func (s *SymlinkFs) CreateSymlink(target, link string) error {
	link = filepath.Clean(link)
	if err := s.Fs.MkdirAll(filepath.Dir(link), 0755); err != nil {
		return err
	}
	if err := afero.WriteFile(s.Fs, link, nil, 0644); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[link] = target
	return nil
}

// ReadlinkIfPossible implements afero.LinkReader.
func (s *SymlinkFs) ReadlinkIfPossible(name string) (string, error) {
	parent, err := s.resolve(filepath.Dir(filepath.Clean(name)))
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if target, ok := s.links[filepath.Join(parent, filepath.Base(name))]; ok {
		return target, nil
	}
	return "", &os.PathError{Op: "readlink", Path: name, Err: syscall.EINVAL}
}

// LstatIfPossible implements afero.Lstater.
func (s *SymlinkFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	parent, err := s.resolve(filepath.Dir(filepath.Clean(name)))
	if err != nil {
		return nil, true, err
	}
	full := filepath.Join(parent, filepath.Base(name))

	s.mu.RLock()
	_, isLink := s.links[full]
	s.mu.RUnlock()
	if isLink {
		return &fakeInfo{name: filepath.Base(name), mode: os.ModeSymlink | 0777}, true, nil
	}

	info, err := s.Fs.Stat(full)
	return info, true, err
}

// Stat follows links.
func (s *SymlinkFs) Stat(name string) (os.FileInfo, error) {
	resolved, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.Fs.Stat(resolved)
}

// Open follows links.
func (s *SymlinkFs) Open(name string) (afero.File, error) {
	resolved, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	return s.Fs.Open(resolved)
}

func (s *SymlinkFs) resolve(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name = filepath.Clean(name)
	parts := strings.Split(strings.TrimPrefix(name, string(filepath.Separator)), string(filepath.Separator))

	current := string(filepath.Separator)
	for _, part := range parts {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)

		for hops := 0; ; hops++ {
			target, ok := s.links[current]
			if !ok {
				break
			}
			if hops >= maxHops {
				return "", &os.PathError{Op: "resolve", Path: name, Err: syscall.ELOOP}
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(filepath.Dir(current), target)
			}
			current = filepath.Clean(target)
		}
	}
	return current, nil
}

// MaskedFs reproduces the metadata-masking defect: every path equal to or
// below a masked prefix classifies successfully as an irregular file instead
// of failing with a permission error. Opening such a path fails with
// os.ErrPermission.
type MaskedFs struct {
	afero.Fs
	masked []string
}

// NewMaskedFs wraps fs, masking the given path prefixes.
func NewMaskedFs(fs afero.Fs, prefixes ...string) *MaskedFs {
	m := &MaskedFs{Fs: fs}
	for _, p := range prefixes {
		m.masked = append(m.masked, filepath.Clean(p))
	}
	return m
}

func (m *MaskedFs) isMasked(name string) bool {
	name = filepath.Clean(name)
	for _, prefix := range m.masked {
		if name == prefix || strings.HasPrefix(name, prefix+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// LstatIfPossible implements afero.Lstater.
func (m *MaskedFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	if m.isMasked(name) {
		return &fakeInfo{name: filepath.Base(name), mode: os.ModeIrregular}, true, nil
	}
	info, err := lstat(m.Fs, name)
	return info, true, err
}

// Stat implements afero.Fs.
func (m *MaskedFs) Stat(name string) (os.FileInfo, error) {
	if m.isMasked(name) {
		return &fakeInfo{name: filepath.Base(name), mode: os.ModeIrregular}, nil
	}
	return m.Fs.Stat(name)
}

// Open implements afero.Fs.
func (m *MaskedFs) Open(name string) (afero.File, error) {
	if m.isMasked(name) {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return m.Fs.Open(name)
}

type fakeInfo struct {
	name string
	mode os.FileMode
}

func (f *fakeInfo) Name() string       { return f.name }
func (f *fakeInfo) Size() int64        { return 0 }
func (f *fakeInfo) Mode() os.FileMode  { return f.mode }
func (f *fakeInfo) ModTime() time.Time { return time.Time{} }
func (f *fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f *fakeInfo) Sys() interface{}   { return nil }
