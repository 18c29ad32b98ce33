package cmd

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testCorpus = `[
  {
    "ACN": 2184152,
    "Time / Day": {"Date": "202301"},
    "Aircraft : 1": {"Make Model Name": "B737-800", "Flight Phase": "Climb"},
    "Narrative: 1": {"text": "During climb the engine failed."},
    "hfacs_classification": [
      {"level": "Unsafe Acts of Operators", "category": "Errors", "sub_category": "Skill-Based Errors"}
    ]
  },
  {
    "ACN": "1000001",
    "Time / Day": {"Date": "202305"},
    "Narrative": {"text": "Taxi clearance misunderstood."}
  }
]`

// isolateEnv gives the test its own HOME, XDG config dir and working
// directory, with every ASRSMCP_* variable cleared.
func isolateEnv(t *testing.T) string {
	t.Helper()

	// --debug and serve install a process-wide default logger
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"ASRSMCP_DATA_PATH",
		"ASRSMCP_LOG_LEVEL",
		"ASRSMCP_TRANSPORT",
		"ASRSMCP_METRICS_ADDR",
		"ASRSMCP_TELEMETRY_ENABLED",
		"ASRSMCP_TELEMETRY_DB",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

// writeCorpus writes the test corpus into dir and returns its path.
func writeCorpus(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "corpus.json")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0644))
	return path
}

// execute runs the root command with args and captures its output.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	cmd := NewRootCmd()
	outBuf, errBuf := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(outBuf)
	cmd.SetErr(errBuf)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)

	err = cmd.Execute()
	return outBuf.String(), errBuf.String(), err
}

func writeFileT(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
