package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/errors"
)

func TestRootCmd_Help(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run("--help")
	require.NoError(t, err)
	assert.Contains(t, out, "adoption plans")
	for _, sub := range []string{"plan", "task", "telemetry", "template", "solution"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCmd_Version(t *testing.T) {
	cmd := newRootCmd(&GlobalFlags{}, BuildInfo{Version: "1.2.3", Commit: "abc123"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Contains(t, buf.String(), "1.2.3 (commit: abc123, built: unknown)")
}

func TestFormatVersion(t *testing.T) {
	assert.Equal(t, "dev (commit: none, built: unknown)", formatVersion(BuildInfo{}))
	assert.Equal(t, "1.0.0 (commit: deadbeef, built: 2026-01-02)",
		formatVersion(BuildInfo{Version: "1.0.0", Commit: "deadbeef", Date: "2026-01-02"}))
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("--output", "xml", "plan", "list")
	require.ErrorIs(t, err, errors.ErrInvalidOutputFormat)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_OutputFromEnv(t *testing.T) {
	env := newCLIEnv(t)
	t.Setenv("ADOPT_OUTPUT", "json")

	out, err := env.run("plan", "list")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestRootCmd_VerboseAndQuietConflict(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("-v", "-q", "plan", "list")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("bogus")
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCodeForError(err))
}
