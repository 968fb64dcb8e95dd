package cleanurl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDecodeTOML(t *testing.T) {
	var testRule = `hosts = ["*.reddit.com"]

[[param_matchers]]
name = "share_id"
operation = "drop"

[[param_matchers]]
name = "ref"
operation = { replace-with = "cleanurl" }

[[param_matchers]]
name = "defaulted"

[[path_matchers]]
name = "s"
operation = "request-redirect"
`
	m, err := DecodeMatcher("reddit", ".toml", []byte(testRule))
	require.NoError(t, err)
	assert.Equal(t, Matcher{
		Name:               "reddit",
		Hosts:              []string{"*.reddit.com"},
		TerminatesMatching: true,
		ParamMatchers: []Param{
			{Name: "share_id", Operation: Drop()},
			{Name: "ref", Operation: ReplaceWith("cleanurl")},
			{Name: "defaulted", Operation: Drop()},
		},
		PathMatchers: []PathComponent{{Name: "s", Operation: RequestRedirect()}},
	}, m)
}

func TestDecodeYAML(t *testing.T) {
	var testRule = `hosts: ["*.reddit.com"]
terminates_matching: false
param_matchers:
  - name: share_id
    operation: drop
  - name: ref
    operation:
      replace-with: cleanurl
path_matchers:
  - name: s
    operation: request-redirect
`
	m, err := DecodeMatcher("reddit", ".yaml", []byte(testRule))
	require.NoError(t, err)
	assert.False(t, m.TerminatesMatching)
	assert.Equal(t, []Param{
		{Name: "share_id", Operation: Drop()},
		{Name: "ref", Operation: ReplaceWith("cleanurl")},
	}, m.ParamMatchers)
	assert.Equal(t, []PathComponent{{Name: "s", Operation: RequestRedirect()}}, m.PathMatchers)
}

func TestDecodeEmpty(t *testing.T) {
	m, err := DecodeMatcher("empty", ".yml", nil)
	require.NoError(t, err)
	assert.True(t, m.TerminatesMatching)
	assert.Empty(t, m.Hosts)
}

func TestDecodeRejects(t *testing.T) {
	tests := map[string]string{
		"unknown field":         "hosts = [\"a.com\"]\nbogus = 1\n",
		"unknown operation":     "[[param_matchers]]\nname = \"a\"\noperation = \"explode\"\n",
		"replace without value": "[[param_matchers]]\nname = \"a\"\noperation = \"replace-with\"\n",
		"replace non string":    "[[param_matchers]]\nname = \"a\"\noperation = { replace-with = 3 }\n",
		"unknown table op":      "[[param_matchers]]\nname = \"a\"\noperation = { rewrite = \"x\" }\n",
		"two table entries":     "[[param_matchers]]\nname = \"a\"\noperation = { replace-with = \"x\", drop = \"y\" }\n",
		"path drop":             "[[path_matchers]]\nname = \"s\"\noperation = \"drop\"\n",
		"path default":          "[[path_matchers]]\nname = \"s\"\n",
		"inner wildcard":        "[[param_matchers]]\nname = \"ut*m\"\n",
		"double wildcard":       "[[param_matchers]]\nname = \"*utm*\"\n",
		"bare wildcard":         "[[param_matchers]]\nname = \"*\"\n",
		"missing name":          "[[param_matchers]]\noperation = \"drop\"\n",
		"public suffix":         "hosts = [\"*.com\"]\n",
		"public suffix co.uk":   "hosts = [\"*.co.uk\"]\n",
		"inner host wildcard":   "hosts = [\"www.*.com\"]\n",
		"empty host":            "hosts = [\"\"]\n",
		"not toml":              "hosts = [",
	}
	for name, def := range tests {
		_, err := DecodeMatcher("bad", ".toml", []byte(def))
		assert.ErrorIs(t, err, ErrInvalidDefinition, name)
	}

	_, err := DecodeMatcher("bad", ".json", []byte("{}"))
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.toml"), "hosts = [\"b.com\"]\n")
	writeFile(t, filepath.Join(dir, "a.yaml"), "hosts: [a.com]\n")
	writeFile(t, filepath.Join(dir, "nested", "global.toml"), "terminates_matching = false\n[[param_matchers]]\nname = \"utm_*\"\n")
	writeFile(t, filepath.Join(dir, "README.md"), "not a matcher")

	rules, err := LoadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, m := range rules.Matchers() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{GlobalMatcher, "a", "b"}, names)
}

func TestLoadDirErrorsNameTheFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "good.toml"), "hosts = [\"good.com\"]\n")
	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "hosts = [\"*.com\"]\n")

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
	var le *RuleLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, bad, le.Path)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestLoadDirDuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "site.toml"), "hosts = [\"a.com\"]\n")
	writeFile(t, filepath.Join(dir, "site.yaml"), "hosts: [b.com]\n")

	_, err := LoadDir(dir)
	assert.ErrorIs(t, err, ErrInvalidDefinition)
	assert.Contains(t, err.Error(), filepath.Join(dir, "site.yaml"))
}

func TestLoadDirMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	_, err := LoadDir(missing)
	var le *RuleLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, missing, le.Path)
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"rules/global.toml": {Data: []byte("terminates_matching = false\n")},
		"rules/site.toml":   {Data: []byte("hosts = [\"site.com\"]\n")},
	}
	rules, err := LoadFS(fsys, "rules")
	require.NoError(t, err)
	assert.Equal(t, 2, rules.Len())
	assert.Equal(t, GlobalMatcher, rules.Matchers()[0].Name)
}

func TestBuiltinMatchesMatchersDir(t *testing.T) {
	loaded, err := LoadDir("matchers")
	require.NoError(t, err)
	builtin, err := Builtin()
	require.NoError(t, err)
	assert.Equal(t, loaded.Matchers(), builtin.Matchers(), "run go generate to refresh builtin_matchers.go")
}

func TestIsDefinitionFile(t *testing.T) {
	assert.True(t, IsDefinitionFile("a.toml"))
	assert.True(t, IsDefinitionFile("dir/a.YAML"))
	assert.True(t, IsDefinitionFile("a.yml"))
	assert.False(t, IsDefinitionFile("a.json"))
	assert.False(t, IsDefinitionFile("toml"))
}
