package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/asrsmcp/internal/errors"
)

func TestRootCmd_HasSubcommands(t *testing.T) {
	// Given: the root command
	cmd := NewRootCmd()

	// When: listing subcommands
	names := make(map[string]bool)
	for _, sc := range cmd.Commands() {
		names[sc.Name()] = true
	}

	// Then: every command is registered
	for _, want := range []string{"serve", "query", "tools", "validate", "convert", "stats", "logs", "config", "version"} {
		assert.True(t, names[want], "missing %s command", want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"debug", "config", "profile-cpu", "profile-mem", "profile-trace"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestRootCmd_ServeOwnsLogging(t *testing.T) {
	// Given: the serve command
	cmd := NewRootCmd()
	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	// Then: it is marked so --debug does not mirror logs to stderr
	assert.Equal(t, "true", serve.Annotations[annotationOwnLogging])
}

func TestRootCmd_ProfileMem_WritesHeapProfile(t *testing.T) {
	// Given: a memory profile path
	dir := isolateEnv(t)
	profile := filepath.Join(dir, "mem.prof")

	// When: running any command with --profile-mem
	_, _, err := execute(t, "--profile-mem", profile, "version", "--short")

	// Then: the heap profile is written after the command finishes
	require.NoError(t, err)
	info, err := os.Stat(profile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRootCmd_Debug_WritesLogFile(t *testing.T) {
	isolateEnv(t)
	home := os.Getenv("HOME")

	_, _, err := execute(t, "--debug", "tools")

	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(home, ".asrsmcp", "logs", "server.log"))
}

func TestRootCmd_ConfigFlag(t *testing.T) {
	// Given: an explicit config file naming a corpus
	dir := isolateEnv(t)
	corpus := writeCorpus(t, dir)
	cfgPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("data:\n  path: "+corpus+"\n"), 0644))

	// When: validating without --data
	stdout, _, err := execute(t, "--config", cfgPath, "validate", "--json")

	// Then: the corpus named in the file is used
	require.NoError(t, err)
	assert.Contains(t, stdout, `"records": 2`)
}

func TestRootCmd_ConfigFlag_Invalid(t *testing.T) {
	dir := isolateEnv(t)
	cfgPath := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("server:\n  transport: http\n"), 0644))

	_, _, err := execute(t, "--config", cfgPath, "validate")

	require.Error(t, err)
	assert.Equal(t, amerrors.ErrCodeConfigInvalid, amerrors.GetCode(err))
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			name: "structured error shows hint and code",
			err:  amerrors.NotFound("42").WithSuggestion("Check the ACN."),
			want: []string{"Error: ", "Hint: Check the ACN.", "Code: ERR_601_INCIDENT_NOT_FOUND"},
		},
		{
			name: "plain error",
			err:  errors.New("unknown flag: --bogus"),
			want: []string{"Error: unknown flag: --bogus\n"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			buf := &bytes.Buffer{}
			cmd.SetErr(buf)

			printError(cmd, tt.err)

			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}
