package app

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/sonemaro/dbwalk/internal/config"
	"github.com/sonemaro/dbwalk/pkg/diag"
	"github.com/sonemaro/dbwalk/pkg/output"
	"github.com/sonemaro/dbwalk/pkg/walker"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		SystemDir:    "/db/system",
		LocalDir:     "/db/local",
		UserDir:      "/db/user",
		Extensions:   []string{".xml"},
		Workers:      1,
		MaxDepth:     -1,
		MaxLinkDepth: 8,
		Output:       "list",
		LogFormat:    "json",
	}
}

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, path := range []string{"/db/system/os/a.xml", "/db/system/b.xml", "/db/local/c.xml"} {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte("<db/>"), 0644))
	}
	return fs
}

func newTestApp(t *testing.T, cfg *config.Config) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	a := New(cfg, WithFs(testFs(t)), WithStdout(&stdout), WithStderr(&stderr))
	t.Cleanup(func() { a.Shutdown() })
	return a, &stdout, &stderr
}

func TestScan(t *testing.T) {
	tests := []struct {
		name     string
		roots    []walker.RootSpec
		opts     *ScanOptions
		wantOut  string
		contains []string
		wantErr  error
	}{
		{
			name:  "list in root order",
			roots: testConfig().Roots(),
			opts:  &ScanOptions{Format: output.FormatList},
			wantOut: "/db/system/b.xml\n/db/system/os/a.xml\n/db/local/c.xml\n" +
				"# warning: Skipping path /db/user: Can't read path /db/user: open /db/user: file does not exist\n",
		},
		{
			name:     "tree with stats",
			roots:    []walker.RootSpec{{Path: "/db/system", Label: "system"}},
			opts:     &ScanOptions{Format: output.FormatTree, WithStats: true},
			contains: []string{"/db/system (system)", "├── b.xml", "└── os/", "Statistics:", "Files: 2"},
		},
		{
			name:     "nil options default to list",
			roots:    []walker.RootSpec{{Path: "/db/local"}},
			wantOut:  "/db/local/c.xml\n",
			contains: nil,
		},
		{
			name:    "required root missing",
			roots:   []walker.RootSpec{{Path: "/db/user"}},
			opts:    &ScanOptions{Format: output.FormatList},
			wantErr: diag.ErrNotAccessible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, stdout, stderr := newTestApp(t, testConfig())

			err := a.Scan(tt.roots, tt.opts)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, stdout.String())
				assert.Contains(t, stderr.String(), "Load failed")
				return
			}

			require.NoError(t, err)
			if tt.wantOut != "" {
				assert.Equal(t, tt.wantOut, stdout.String())
			}
			for _, want := range tt.contains {
				assert.Contains(t, stdout.String(), want)
			}
		})
	}
}

func TestScanResetsWarningsBetweenPasses(t *testing.T) {
	a, stdout, _ := newTestApp(t, testConfig())
	roots := []walker.RootSpec{{Path: "/db/user", TolerateMissing: true}}

	require.NoError(t, a.Scan(roots, nil))
	first := stdout.String()
	stdout.Reset()

	require.NoError(t, a.Scan(roots, nil))
	assert.Equal(t, first, stdout.String())
	assert.Equal(t, 1, strings.Count(stdout.String(), "# warning:"))
}

func TestScanWritesOutputFile(t *testing.T) {
	a, stdout, _ := newTestApp(t, testConfig())
	path := filepath.Join(t.TempDir(), "files.toml")

	err := a.Scan([]walker.RootSpec{{Path: "/db/local", Label: "local"}}, &ScanOptions{
		Format:     output.FormatTOML,
		OutputPath: path,
	})
	require.NoError(t, err)
	assert.Empty(t, stdout.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "/db/local/c.xml")
	assert.Contains(t, string(data), "[[roots]]")
}

func TestUseColor(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig())
	cfg := testConfig()

	assert.False(t, a.useColor(cfg, ""), "buffer is not a terminal")
	assert.False(t, a.useColor(cfg, "out.txt"))

	cfg.NoColor = true
	assert.False(t, a.useColor(cfg, ""))
}

func TestHandleInterrupt(t *testing.T) {
	a, _, stderr := newTestApp(t, testConfig())

	code := -1
	a.exit = func(c int) { code = c }

	a.handleSignal(syscall.SIGINT)
	assert.Equal(t, exitInterrupted, code)
	assert.Contains(t, stderr.String(), "Interrupted")
}

func TestReloadConfiguration(t *testing.T) {
	for _, key := range []string{"DBWALK_WORKERS", "DBWALK_OUTPUT", "DBWALK_EXTENSIONS"} {
		t.Setenv(key, "")
	}

	cfgFile := filepath.Join(t.TempDir(), "dbwalk.toml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("extensions = [\".xml\"]\n"), 0644))

	cfg := testConfig()
	cfg.ConfigFile = cfgFile
	cfg.NoColor = true
	a, stdout, _ := newTestApp(t, cfg)

	require.NoError(t, os.WriteFile(cfgFile, []byte("extensions = [\".json\"]\nworkers = 2\n"), 0644))
	a.handleSignal(syscall.SIGHUP)

	reloaded := a.Config()
	assert.Equal(t, []string{".json"}, reloaded.Extensions)
	assert.Equal(t, 2, reloaded.Workers)
	assert.True(t, reloaded.NoColor, "command line flags survive a reload")

	require.NoError(t, a.Scan([]walker.RootSpec{{Path: "/db/system"}}, nil))
	assert.Empty(t, stdout.String(), "reloaded extensions no longer match .xml files")
}

func TestReloadConfigurationKeepsOldConfigOnError(t *testing.T) {
	cfg := testConfig()
	cfg.ConfigFile = filepath.Join(t.TempDir(), "missing.yaml")
	a, _, stderr := newTestApp(t, cfg)

	a.handleSignal(syscall.SIGHUP)

	assert.Equal(t, *cfg, a.Config())
	assert.Contains(t, stderr.String(), "Failed to reload configuration")
}

func TestShutdownIsIdempotent(t *testing.T) {
	a, _, _ := newTestApp(t, testConfig())
	assert.NoError(t, a.Shutdown())
	assert.NoError(t, a.Shutdown())
}
