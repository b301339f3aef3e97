package cmd

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"
)

const directoryJSON = `[
  {"id": 1, "session_name": "morning", "time_in": "07:00:00", "time_out": "12:00:00", "late_time": "00:15:00"},
  {"id": 2, "session_name": "afternoon", "time_in": "13:00:00", "time_out": "17:00:00", "late_time": null},
  {"id": 3, "session_name": "night", "time_in": "22:00:00", "time_out": "06:00:00", "late_time": "00:30:00"}
]`

// newDirectoryServer serves body with status on every request.
func newDirectoryServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// writeConfig writes a UTC configuration using bbolt in a temp data dir.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "shiftgate.toml")
	content := fmt.Sprintf(`[server]
data_dir = %q

[storage]
backend = "bbolt"

[attendance]
timezone = "UTC"
`, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// runCLI executes a fresh root command and returns its stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}
