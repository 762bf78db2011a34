package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mrz1836/adopt/internal/constants"
)

const testCatalog = `
products:
  - id: secure-access
    name: Secure Access
    outcomes:
      - id: control
        name: Control
    tasks:
      - id: tt-setup
        name: Initial setup
        weight: 60
        sequence_number: 1
        license_level: ESSENTIAL
        attributes:
          - id: ad-users
            name: Active users
            data_type: NUMBER
            success_criteria:
              type: NUMBER_THRESHOLD
              operator: GREATER_THAN_OR_EQUAL
              threshold: 10
      - id: tt-policy
        name: Define policy
        weight: 40
        sequence_number: 2
        license_level: ESSENTIAL
        outcome_ids: [control]
      - id: tt-advanced
        name: Advanced analytics
        weight: 20
        sequence_number: 3
        license_level: SIGNATURE
  - id: data-guard
    name: Data Guard
    tasks:
      - id: tt-classify
        name: Classify data
        weight: 100
        sequence_number: 1
        license_level: ESSENTIAL
solutions:
  - id: zero-trust
    name: Zero Trust
    products:
      - product_id: secure-access
        weight: 75
      - product_id: data-guard
        weight: 25
`

// cliEnv is an isolated adopt home for command tests.
type cliEnv struct {
	t    *testing.T
	home string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	home := t.TempDir()
	t.Setenv(constants.EnvHome, home)
	t.Setenv("NO_COLOR", "1")
	t.Cleanup(CloseLogFile)
	return &cliEnv{t: t, home: home}
}

// writeFile writes content under the env's home and returns the path.
func (e *cliEnv) writeFile(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.home, name)
	require.NoError(e.t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// publish installs the test catalog.
func (e *cliEnv) publish() {
	e.t.Helper()
	src := e.writeFile("incoming/catalog.yaml", testCatalog)
	_, err := e.run("template", "publish", src)
	require.NoError(e.t, err)
}

// run executes the CLI with args and returns everything written to stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	return e.runWithInput("", args...)
}

func (e *cliEnv) runWithInput(stdin string, args ...string) (string, error) {
	e.t.Helper()
	flags := &GlobalFlags{}
	cmd := newRootCmd(flags, BuildInfo{Version: "test"})
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(append([]string{"--home", e.home, "--actor", "tester"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// runJSON executes the CLI with --output json and decodes stdout into v.
func (e *cliEnv) runJSON(v any, args ...string) {
	e.t.Helper()
	out, err := e.run(append([]string{"--output", "json"}, args...)...)
	require.NoError(e.t, err, out)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), out)
}
