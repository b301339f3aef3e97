package cmd

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_Text(t *testing.T) {
	srv := newDirectoryServer(t, http.StatusOK, directoryJSON)
	cfg := writeConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "resolve",
		"--directory", srv.URL, "--at", "2025-06-02T07:20:00Z")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "resolve_text", []byte(out))
}

func TestResolve_JSON(t *testing.T) {
	srv := newDirectoryServer(t, http.StatusOK, directoryJSON)
	cfg := writeConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "resolve",
		"--directory", srv.URL, "--at", "2025-06-02T07:20:00Z", "--json")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "resolve_json", []byte(out))
}

func TestResolve_ConvertsToConfiguredTimezone(t *testing.T) {
	srv := newDirectoryServer(t, http.StatusOK, directoryJSON)
	cfg := writeConfig(t)

	// 14:05 at +07:00 is 07:05 UTC: morning, not late.
	out, _, err := runCLI(t, "--config", cfg, "resolve",
		"--directory", srv.URL, "--at", "2025-06-02T14:05:00+07:00")
	require.NoError(t, err)
	assert.Contains(t, out, "at:       2025-06-02T07:05:00Z\n")
	assert.Contains(t, out, "session:  morning\n")
	assert.Contains(t, out, "late:     false\n")
}

func TestResolve_DirectoryDownFallsBack(t *testing.T) {
	srv := newDirectoryServer(t, http.StatusInternalServerError, `{"error":"boom"}`)
	cfg := writeConfig(t)

	out, stderr, err := runCLI(t, "--config", cfg, "resolve",
		"--directory", srv.URL, "--at", "2025-06-02T03:00:00Z")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "resolve_fallback", []byte(out))
	assert.Contains(t, stderr, "directory_unavailable")
}

func TestResolve_LocalStoreEmpty(t *testing.T) {
	cfg := writeConfig(t)

	out, _, err := runCLI(t, "--config", cfg, "resolve", "--at", "2025-06-02T13:30:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, "session:  afternoon\n")
	assert.Contains(t, out, "allowed:  true\n")
	assert.Contains(t, out, "fallback: true\n")
}

func TestResolve_InvalidAt(t *testing.T) {
	cfg := writeConfig(t)

	_, _, err := runCLI(t, "--config", cfg, "resolve", "--at", "yesterday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RFC3339")
}
