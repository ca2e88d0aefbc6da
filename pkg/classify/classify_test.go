package classify

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMemFs(t *testing.T) afero.Fs {
	t.Helper()

	memFs := afero.NewMemMapFs()
	require.NoError(t, memFs.MkdirAll("/data/db/os", 0755))
	require.NoError(t, afero.WriteFile(memFs, "/data/db/os/fedora.xml", []byte("<os/>"), 0644))
	return memFs
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		fs       func(t *testing.T) afero.Fs
		path     string
		expected Classification
		errCheck func(*testing.T, error)
	}{
		{
			name:     "regular file",
			fs:       setupMemFs,
			path:     "/data/db/os/fedora.xml",
			expected: Regular,
		},
		{
			name:     "directory",
			fs:       setupMemFs,
			path:     "/data/db/os",
			expected: Directory,
		},
		{
			name:     "missing path surfaces the raw error",
			fs:       setupMemFs,
			path:     "/data/db/missing",
			expected: Unknown,
			errCheck: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.True(t, errors.Is(err, fs.ErrNotExist))
			},
		},
		{
			name: "masked path classifies as unknown without error",
			fs: func(t *testing.T) afero.Fs {
				return NewMaskedFs(setupMemFs(t), "/data/db")
			},
			path:     "/data/db/os",
			expected: Unknown,
		},
		{
			name: "symlink is not followed",
			fs: func(t *testing.T) afero.Fs {
				sfs := NewSymlinkFs(setupMemFs(t))
				require.NoError(t, sfs.CreateSymlink("/data/db/os", "/data/db/alias"))
				return sfs
			},
			path:     "/data/db/alias",
			expected: SymbolicLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.fs(t))

			kind, err := c.Classify(tt.path)
			if tt.errCheck != nil {
				tt.errCheck(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expected, kind)
		})
	}
}

func TestClassifyOsFs(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "linux.xml")
	require.NoError(t, os.WriteFile(file, []byte("<os/>"), 0644))
	link := filepath.Join(dir, "link.xml")
	require.NoError(t, os.Symlink(file, link))

	c := New(afero.NewOsFs())

	kind, err := c.Classify(dir)
	require.NoError(t, err)
	assert.Equal(t, Directory, kind)

	kind, err = c.Classify(file)
	require.NoError(t, err)
	assert.Equal(t, Regular, kind)

	kind, err = c.Classify(link)
	require.NoError(t, err)
	assert.Equal(t, SymbolicLink, kind)

	_, err = c.Classify(filepath.Join(dir, "absent"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFromMode(t *testing.T) {
	assert.Equal(t, Regular, FromMode(0644))
	assert.Equal(t, Directory, FromMode(os.ModeDir|0755))
	assert.Equal(t, SymbolicLink, FromMode(os.ModeSymlink|0777))
	assert.Equal(t, Unknown, FromMode(os.ModeNamedPipe))
	assert.Equal(t, Unknown, FromMode(os.ModeSocket))
	assert.Equal(t, Unknown, FromMode(os.ModeDevice|os.ModeCharDevice))
	assert.Equal(t, Unknown, FromMode(os.ModeIrregular))
}

func TestClassificationString(t *testing.T) {
	assert.Equal(t, "regular", Regular.String())
	assert.Equal(t, "directory", Directory.String())
	assert.Equal(t, "symlink", SymbolicLink.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestReadlink(t *testing.T) {
	sfs := NewSymlinkFs(setupMemFs(t))
	require.NoError(t, sfs.CreateSymlink("os/fedora.xml", "/data/db/relative.xml"))
	require.NoError(t, sfs.CreateSymlink("/data/db/os", "/data/db/absolute"))

	target, err := Readlink(sfs, "/data/db/relative.xml")
	require.NoError(t, err)
	assert.Equal(t, "/data/db/os/fedora.xml", target)

	target, err = Readlink(sfs, "/data/db/absolute")
	require.NoError(t, err)
	assert.Equal(t, "/data/db/os", target)

	_, err = Readlink(sfs, "/data/db/os")
	assert.Error(t, err)

	_, err = Readlink(afero.NewMemMapFs(), "/anything")
	assert.ErrorIs(t, err, afero.ErrNoReadlink)
}

func TestSymlinkFsResolvesThroughLinks(t *testing.T) {
	sfs := NewSymlinkFs(setupMemFs(t))
	require.NoError(t, sfs.CreateSymlink("/data/db/os", "/data/db/alias"))

	info, err := sfs.Stat("/data/db/alias/fedora.xml")
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular())

	info, _, err = sfs.LstatIfPossible("/data/db/alias/fedora.xml")
	require.NoError(t, err)
	assert.Equal(t, Regular, FromMode(info.Mode()))

	names, err := afero.ReadDir(sfs, "/data/db/alias")
	require.NoError(t, err)
	require.Len(t, names, 1)
	assert.Equal(t, "fedora.xml", names[0].Name())
}

func TestMaskedFsOpenFails(t *testing.T) {
	mfs := NewMaskedFs(setupMemFs(t), "/data/db/os")

	_, err := mfs.Open("/data/db/os/fedora.xml")
	assert.ErrorIs(t, err, os.ErrPermission)

	_, err = mfs.Open("/data/db")
	assert.NoError(t, err)
}
