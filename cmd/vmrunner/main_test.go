package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrpan/vmrunner/internal/actions"
	"github.com/terrpan/vmrunner/internal/config"
)

// setup resets the flag globals and points GITHUB_OUTPUT at a temp file,
// which it returns.
func setup(t *testing.T, inputs map[string]string) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), "output")
	t.Setenv(actions.EnvOutput, out)
	t.Setenv(config.EnvGithubRepository, "octo/hello")

	cfgPath = ""
	inputFlags = inputs
	printRequest = false
	logging = config.LoggingConfig{Level: "debug", Format: "text"}
	t.Cleanup(func() { inputFlags = nil })

	return out
}

func startFlags() map[string]string {
	return map[string]string{
		config.InputMode:        config.ModeStart,
		config.InputGithubToken: "ghp_secret",
		config.InputFolderID:    "f1",
		config.InputImageID:     "img1",
		config.InputSubnetID:    "subnet1",
	}
}

func TestRun_StartGeneratesLabel(t *testing.T) {
	outPath := setup(t, startFlags())
	var stdout, stderr bytes.Buffer

	require.NoError(t, run(context.Background(), &stdout, &stderr))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^label=[a-z0-9]{5}\n$`), string(data))

	assert.Contains(t, stdout.String(), "::group::Parsing Action Inputs\n")
	assert.Contains(t, stdout.String(), "::endgroup::\n")
	assert.Contains(t, stdout.String(), "::add-mask::ghp_secret\n")
	assert.NotContains(t, stderr.String(), "ghp_secret")
}

func TestRun_StartKeepsGivenLabel(t *testing.T) {
	flags := startFlags()
	flags[config.InputLabel] = "given"
	outPath := setup(t, flags)

	require.NoError(t, run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "label=given\n", string(data))
}

func TestRun_PrintRequest(t *testing.T) {
	flags := startFlags()
	flags[config.InputLabel] = "ab12c"
	setup(t, flags)
	printRequest = true
	var stdout bytes.Buffer

	require.NoError(t, run(context.Background(), &stdout, &bytes.Buffer{}))

	idx := strings.Index(stdout.String(), "{")
	require.GreaterOrEqual(t, idx, 0)
	var req map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout.String()[idx:]), &req))
	assert.Equal(t, "f1", req["project"])
	assert.NotContains(t, stdout.String()[idx:], "ghp_secret")
}

func TestRun_StopWritesNoOutputs(t *testing.T) {
	flags := startFlags()
	flags[config.InputMode] = config.ModeStop
	flags[config.InputLabel] = "ab12c"
	flags[config.InputInstanceID] = "runner-ab12c"
	outPath := setup(t, flags)

	require.NoError(t, run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}))

	_, err := os.Stat(outPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRun_InvalidConfig(t *testing.T) {
	flags := startFlags()
	flags[config.InputMode] = "restart"
	setup(t, flags)
	var stdout bytes.Buffer

	err := run(context.Background(), &stdout, &bytes.Buffer{})
	var ce *config.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, config.ReasonInvalidMode, ce.Reason)
	assert.Contains(t, stdout.String(), "::endgroup::")
}

func TestRun_MissingRepository(t *testing.T) {
	setup(t, startFlags())
	t.Setenv(config.EnvGithubRepository, "")

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{})
	var me *config.MalformedValueError
	require.ErrorAs(t, err, &me)
}

func TestRun_ConfigFile(t *testing.T) {
	flags := map[string]string{config.InputMode: config.ModeStart}
	outPath := setup(t, flags)

	path := filepath.Join(t.TempDir(), "inputs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: stop
github-token: t
folder-id: f1
vm-image-id: img1
vm-subnet-id: subnet1
label: fromfile
`), 0o600))
	cfgPath = path
	t.Cleanup(func() { cfgPath = "" })

	require.NoError(t, run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "label=fromfile\n", string(data), "flag mode overrides the file")
}

func TestOutcomeOf(t *testing.T) {
	assert.Equal(t, "missing_input", outcomeOf(&config.MissingInputError{Key: "folder-id"}))
	assert.Equal(t, "malformed_value", outcomeOf(&config.MalformedValueError{Key: "vm-memory"}))
	assert.Equal(t, "config_error", outcomeOf(&config.ConfigError{Reason: config.ReasonInvalidMode}))
	assert.Equal(t, "error", outcomeOf(assert.AnError))
}
