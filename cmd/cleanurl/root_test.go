package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with a config file that does not exist, so only
// defaults and the given flags apply.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.toml")}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeRules(t *testing.T) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "global.toml"), []byte("terminates_matching = false\n[[param_matchers]]\nname = \"ref\"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.toml"), []byte("hosts = [\"*.site.com\"]\n[[param_matchers]]\nname = \"sid\"\noperation = { replace-with = \"0\" }\n"), 0o600))
	return dir
}

func TestCleanArgs(t *testing.T) {
	out, err := run(t, "", "--rules-dir", writeRules(t), "clean",
		"https://www.site.com/a?sid=9&ref=x&id=1",
		"not a url",
		"https://other.com/?id=1",
	)
	require.NoError(t, err)
	assert.Equal(t, "https://www.site.com/a?sid=0&id=1\nnot a url\nhttps://other.com/?id=1\n", out)
}

func TestCleanStdin(t *testing.T) {
	out, err := run(t, "https://example.com/?utm_source=a&id=1\n\n  https://open.spotify.com/track/1?si=abc  \n", "--rules-dir", "../../matchers", "clean")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/?id=1\nhttps://open.spotify.com/track/1\n", out)
}

func TestCleanBadRules(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.toml"), []byte("hosts = [\"*.com\"]\n"), 0o600))
	_, err := run(t, "", "--rules-dir", dir, "clean", "https://example.com/")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.toml")
}

func TestRulesList(t *testing.T) {
	out, err := run(t, "", "--rules-dir", writeRules(t), "rules", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2 matchers from")
	assert.Contains(t, out, "global")
	assert.Contains(t, out, "*.site.com")
	assert.Contains(t, out, `?sid replace-with("0")`)
	assert.True(t, strings.Index(out, "global") < strings.Index(out, "site"), "global is listed first")
}

func TestRulesCheck(t *testing.T) {
	out, err := run(t, "", "rules", "check", writeRules(t))
	require.NoError(t, err)
	assert.Contains(t, out, "2 matchers OK")

	_, err = run(t, "", "rules", "check", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = run(t, "", "rules", "check")
	assert.Error(t, err, "a directory is required")
}

func TestWatchRequiresFile(t *testing.T) {
	_, err := run(t, "", "watch")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no file to watch")
}

func TestConfigPathAndVersion(t *testing.T) {
	out, err := run(t, "", "config-path")
	require.NoError(t, err)
	assert.Contains(t, out, "config.toml")
	assert.Contains(t, out, "matchers")

	out, err = run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "cleanurl dev\n", out)
}
