package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sonemaro/dbwalk/pkg/diag"
	"github.com/sonemaro/dbwalk/pkg/walker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRoots(t *testing.T) string {
	t.Helper()

	base := t.TempDir()
	for _, path := range []string{
		"system/os/fedora.xml",
		"system/platform/qemu.xml",
		"system/README",
		"local/local.xml",
	} {
		full := filepath.Join(base, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte("<db/>"), 0644))
	}

	t.Setenv("DBWALK_SYSTEM_DIR", filepath.Join(base, "system"))
	t.Setenv("DBWALK_LOCAL_DIR", filepath.Join(base, "local"))
	t.Setenv("DBWALK_USER_DIR", filepath.Join(base, "user"))
	return base
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestScanCommand(t *testing.T) {
	base := setupRoots(t)
	system := filepath.Join(base, "system")
	local := filepath.Join(base, "local")
	user := filepath.Join(base, "user")

	tests := []struct {
		name      string
		args      []string
		wantOut   string
		contains  []string
		wantErr   error
		errSubstr string
	}{
		{
			name: "configured roots",
			args: []string{"scan"},
			wantOut: strings.Join([]string{
				filepath.Join(system, "os", "fedora.xml"),
				filepath.Join(system, "platform", "qemu.xml"),
				filepath.Join(local, "local.xml"),
				"# warning: Skipping path " + user,
			}, "\n"),
		},
		{
			name: "explicit roots",
			args: []string{"scan", "--root", local, "--root", system + "/platform"},
			wantOut: strings.Join([]string{
				filepath.Join(local, "local.xml"),
				filepath.Join(system, "platform", "qemu.xml"),
			}, "\n") + "\n",
		},
		{
			name:     "optional missing root",
			args:     []string{"scan", "--root", user + ":optional", "-o", "tree"},
			contains: []string{user, "(no files)", "Warnings:", "Skipping path " + user},
		},
		{
			name:      "required missing root",
			args:      []string{"scan", "--root", user},
			wantErr:   &diag.LoadError{Kind: diag.NotAccessible, Path: user},
			errSubstr: user,
		},
		{
			name:     "extension override",
			args:     []string{"scan", "--root", system, "-e", "xml"},
			contains: []string{"fedora.xml", "qemu.xml"},
		},
		{
			name:     "stats",
			args:     []string{"scan", "--root", system, "--stats", "-w", "2"},
			contains: []string{"# files: 2, directories: 3, skipped: 0, warnings: 0"},
		},
		{
			name:      "invalid output format",
			args:      []string{"scan", "-o", "xml"},
			errSubstr: "unsupported format: xml",
		},
		{
			name:      "empty root",
			args:      []string{"scan", "--root", ":optional"},
			errSubstr: `invalid root ":optional"`,
		},
		{
			name:      "positional arguments rejected",
			args:      []string{"scan", "/tmp"},
			errSubstr: "unknown command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)

			if tt.wantErr != nil || tt.errSubstr != "" {
				require.Error(t, err)
				if tt.wantErr != nil {
					assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				}
				assert.Contains(t, err.Error(), tt.errSubstr)
				assert.Empty(t, stdout)
				return
			}

			require.NoError(t, err)
			if tt.wantOut != "" {
				assert.True(t, strings.HasPrefix(stdout, tt.wantOut), "output:\n%s", stdout)
			}
			for _, want := range tt.contains {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestScanCommandWritesFile(t *testing.T) {
	base := setupRoots(t)
	outFile := filepath.Join(base, "out", "files.json")

	stdout, _, err := execute(t, "scan", "-o", "json", "-f", outFile, "--no-color")
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)

	var doc struct {
		RunID string `json:"runId"`
		Roots []struct {
			Label string   `json:"label"`
			Files []string `json:"files"`
		} `json:"roots"`
		Warnings []diag.Warning `json:"warnings"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotEmpty(t, doc.RunID)
	require.Len(t, doc.Roots, 3)
	assert.Equal(t, "system", doc.Roots[0].Label)
	assert.Len(t, doc.Roots[0].Files, 2)
	assert.Len(t, doc.Roots[1].Files, 1)
	assert.Empty(t, doc.Roots[2].Files)
	assert.Len(t, doc.Warnings, 1)
}

func TestScanCommandConfigFile(t *testing.T) {
	base := setupRoots(t)

	cfgFile := filepath.Join(base, "dbwalk.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("output: yaml\nsystem_optional: true\n"), 0644))

	stdout, _, err := execute(t, "--config", cfgFile, "scan")
	require.NoError(t, err)
	assert.Contains(t, stdout, "roots:")
	assert.Contains(t, stdout, "tolerant: true")
}

func TestRootsCommand(t *testing.T) {
	base := setupRoots(t)

	stdout, _, err := execute(t, "roots")
	require.NoError(t, err)

	for _, want := range []string{
		"Label", "Policy", "Status",
		"system", filepath.Join(base, "system"), "required", "directory",
		"local", "optional",
		"user", "missing",
	} {
		assert.Contains(t, stdout, want)
	}
}

func TestVersionCommand(t *testing.T) {
	t.Setenv("DBWALK_OUTPUT", "invalid")

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "dbwalk "))

	stdout, _, err = execute(t, "version", "--full")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Go Version:")
}

func TestInvalidEnvironmentFailsCommands(t *testing.T) {
	setupRoots(t)
	t.Setenv("DBWALK_WORKERS", "-3")

	_, _, err := execute(t, "scan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestParseRoot(t *testing.T) {
	tests := []struct {
		in      string
		want    walker.RootSpec
		wantErr bool
	}{
		{in: "/srv/db", want: walker.RootSpec{Path: "/srv/db", Label: "cli"}},
		{in: "/srv/db:optional", want: walker.RootSpec{Path: "/srv/db", TolerateMissing: true, Label: "cli"}},
		{in: "relative/db", want: walker.RootSpec{Path: "relative/db", Label: "cli"}},
		{in: ":optional", wantErr: true},
		{in: " ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseRoot(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
