package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configllm/internal/audit"
	"configllm/internal/domain"
	"configllm/internal/tables"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	filesDir   string
}

func setupCLITestEnv(t *testing.T, withDB bool) *cliTestEnv {
	t.Helper()
	t.Setenv("CONFIGLLM_API_API_KEY", "")
	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.yaml"),
		outputDir:  filepath.Join(base, "out"),
		filesDir:   filepath.Join(base, "files"),
	}

	var b strings.Builder
	b.WriteString("api:\n  type: openai_compatible\n")
	b.WriteString("paths:\n  output_dir: " + env.outputDir + "\n  files_dir: " + env.filesDir + "\n")
	b.WriteString("auth:\n  secret: test-secret\n")
	if withDB {
		b.WriteString("db:\n  driver: sqlite\n  dsn: " + filepath.Join(base, "attempts.db") + "\n")
	}
	require.NoError(t, os.WriteFile(env.configPath, []byte(b.String()), 0o644))
	return env
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliTestEnv) writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.baseDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFilesCommands(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := runCLI(t, env, "files", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No files in")

	src := env.writeFile(t, "report.txt", "quarterly")
	out, err = runCLI(t, env, "files", "add", src)
	require.NoError(t, err)
	assert.Contains(t, out, "Added report.txt (9 bytes)")

	_, err = runCLI(t, env, "files", "add", src)
	assert.ErrorIs(t, err, domain.ErrFileExists)

	out, err = runCLI(t, env, "files", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "report.txt")

	out, err = runCLI(t, env, "files", "remove", "report.txt")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 file(s)")

	_, err = runCLI(t, env, "files", "remove")
	assert.Error(t, err)
}

func TestRunCommand_RecordsConfigurationFailure(t *testing.T) {
	env := setupCLITestEnv(t, true)
	src := env.writeFile(t, "note.txt", "hello")

	out, err := runCLI(t, env, "run", src, "--iterations", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Processing completed with 2 error(s) out of 2 attempt(s).")
	assert.Contains(t, out, "note.txt (iteration 1)")
	assert.FileExists(t, filepath.Join(env.outputDir, audit.SummaryFile))

	out, err = runCLI(t, env, "attempts")
	require.NoError(t, err)
	assert.Contains(t, out, "configuration")
	assert.Contains(t, out, "note.txt")
}

func TestRunCommand_EmptyLibrary(t *testing.T) {
	env := setupCLITestEnv(t, false)

	_, err := runCLI(t, env, "run")
	assert.ErrorIs(t, err, domain.ErrNoFiles)
}

func TestAttemptsCommand_NoDatabase(t *testing.T) {
	env := setupCLITestEnv(t, false)

	_, err := runCLI(t, env, "attempts")
	assert.ErrorIs(t, err, domain.ErrSinkDisabled)
}

func TestTablesExportCommand(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := runCLI(t, env, "tables", "export")
	require.NoError(t, err)
	assert.Contains(t, out, "No tables found")

	r := domain.AttemptResult{
		WorkItem:   domain.WorkItem{FileName: "a.pdf", ContentHash: "ff00", Iteration: 1},
		Provider:   domain.ProviderClaude,
		ModelID:    "m",
		ResultText: "```csv\nk,v\nx,1\n```",
	}
	require.NoError(t, os.MkdirAll(env.outputDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(env.outputDir, audit.TranscriptFile), []byte(audit.TranscriptBlock(&r)), 0o644))

	dest := filepath.Join(env.baseDir, "tables.csv")
	out, err = runCLI(t, env, "tables", "export", "--output", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 row(s) from 1 table(s)")

	m, err := tables.Load(filepath.Join(env.outputDir, audit.TranscriptFile))
	require.NoError(t, err)
	assert.Equal(t, []string{"k", "v", tables.ColumnModelID, tables.ColumnMD5, tables.ColumnIteration}, m.Header)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), "x,1,m,ff00,1")

	_, err = runCLI(t, env, "tables", "export", "--format", "pdf")
	assert.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	env := setupCLITestEnv(t, false)

	out, err := runCLI(t, env, "token", "--operator", "ci")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(strings.SplitN(out, "\n", 2)[0], ".")))
}

func TestResolveFiles(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "x.txt")
	require.NoError(t, os.WriteFile(existing, nil, 0o644))

	got := resolveFiles("/lib", []string{existing, "name.pdf", "sub/missing.txt"})
	assert.Equal(t, []string{existing, filepath.Join("/lib", "name.pdf"), "sub/missing.txt"}, got)
}
