package cmd

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/meter-reading-import/internal/auth"
	"github.com/ginjaninja78/meter-reading-import/internal/config"
	"github.com/ginjaninja78/meter-reading-import/internal/sample"
	"github.com/ginjaninja78/meter-reading-import/internal/types"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("METERIMPORT_DATABASE_DSN", "")
	t.Setenv("METERIMPORT_REDIS_ADDR", "")

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "absent.yaml")))

	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Meter Reading Import")
	assert.Contains(t, out, "Version:")
}

func TestTemplateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "example.csv")

	out, err := execute(t, "template", "--format", "csv", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, sample.CSV(), data)

	_, err = execute(t, "template", "--format", "ods", "--out", path)
	assert.Error(t, err)
}

func TestValidateCommand_WithoutDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	require.NoError(t, os.WriteFile(path, []byte("Zählernummer;Datum;Zählerstand\nZ-1;15.01.2024;1\n;16.01.2024;2\n"), 0644))

	out, err := execute(t, "validate", path)
	assert.ErrorIs(t, err, types.ErrNoValidRows)
	assert.Contains(t, out, "=== Column Mapping ===")
	assert.Contains(t, out, "=== Validation Summary ===")
	assert.Contains(t, out, "Warnings:        1")
	assert.Contains(t, out, "Errors:          1")
}

func TestValidateCommand_RejectsUnsupportedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))

	_, err := execute(t, "validate", path)
	var ferr *types.FileError
	assert.ErrorAs(t, err, &ferr)
}

func TestImportCommand_RequiresDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.csv")
	require.NoError(t, os.WriteFile(path, sample.CSV(), 0644))

	_, err := execute(t, "import", path, "--user", "alice")
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{"y\n": true, "Ja\n": true, "yes": true, "\n": false, "n\n": false, "": false}

	for input, want := range tests {
		var out bytes.Buffer
		got, err := confirm(&out, bufio.NewReader(strings.NewReader(input)), 3, true)
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "Import 3 reading(s)?")
	}
}

func TestResolveUser(t *testing.T) {
	cfg := config.Default()
	cfg.Auth.User = "from-config"

	u, err := resolveUser(cfg, "", "")
	require.NoError(t, err)
	assert.Equal(t, auth.Static("from-config"), u)

	u, err = resolveUser(cfg, "alice", "")
	require.NoError(t, err)
	assert.Equal(t, auth.Static("alice"), u)

	_, err = resolveUser(cfg, "", "some.jwt.token")
	assert.Error(t, err)

	cfg.Auth.JWTSecret = "secret"
	signed, err := auth.IssueToken("bob", cfg.TenantID, "secret", 0)
	require.NoError(t, err)
	u, err = resolveUser(cfg, "alice", signed)
	require.NoError(t, err)
	name, err := u.CurrentUser(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "bob", name)
}

func TestNewFileManager_ArchiveByDate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "readings.csv")
	require.NoError(t, os.WriteFile(src, sample.CSV(), 0644))

	cfg := config.Default()
	cfg.Report.ArchiveDir = filepath.Join(dir, "archive")

	flat, err := newFileManager(cfg).ArchiveSourceFile(src, "b1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Report.ArchiveDir, "b1_readings.csv"), flat)

	cfg.Report.ArchiveByDate = true
	dated, err := newFileManager(cfg).ArchiveSourceFile(src, "b2")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dated, filepath.Join(cfg.Report.ArchiveDir, fmt.Sprint(time.Now().Year()))), dated)
	assert.Equal(t, "b2_readings.csv", filepath.Base(dated))
	assert.FileExists(t, dated)
}
