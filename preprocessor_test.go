package cleanurl

import (
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsCurrent(t *testing.T) {
	// Regenerating from the matchers directory must reproduce the committed
	// table, so the build-time and runtime paths cannot drift apart.
	rules, err := LoadDir("matchers")
	require.NoError(t, err)
	got, err := Preprocessor.Generate(rules)
	require.NoError(t, err)

	committed, err := os.ReadFile("builtin_matchers.go")
	require.NoError(t, err)
	want, err := format.Source(committed)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got), "run go generate to refresh builtin_matchers.go")
}

func TestPreprocess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "rules", "global.toml"), "terminates_matching = false\n[[param_matchers]]\nname = \"utm_*\"\n")
	writeFile(t, filepath.Join(dir, "rules", "site.toml"), `hosts = ["*.site.com", "site.net"]

[[param_matchers]]
name = "ref"
operation = { replace-with = "a \"quoted\" value" }

[[path_matchers]]
name = "s"
operation = "request-redirect"
`)
	out := filepath.Join(dir, "out.go")
	require.NoError(t, Preprocessor.Preprocess(filepath.Join(dir, "rules"), out))

	src, err := os.ReadFile(out)
	require.NoError(t, err)
	_, err = parser.ParseFile(token.NewFileSet(), out, src, 0)
	require.NoError(t, err, "generated code should parse")

	s := string(src)
	assert.True(t, strings.HasPrefix(s, "// Code generated by preprocess; DO NOT EDIT."))
	assert.True(t, strings.Index(s, `"global"`) < strings.Index(s, `"site"`), "global should come first")
	assert.Contains(t, s, `ReplaceWith("a \"quoted\" value")`)
	assert.Contains(t, s, `RequestRedirect()`)
	assert.Contains(t, s, `[]string{"*.site.com", "site.net"}`)
}

func TestPreprocessRejectsBadRules(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[[path_matchers]]\nname = \"s\"\noperation = { replace-with = \"x\" }\n")

	err := Preprocessor.Preprocess(dir, filepath.Join(dir, "out.go"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
	assert.NoFileExists(t, filepath.Join(dir, "out.go"))
}

func TestVet(t *testing.T) {
	assert.NoError(t, Vet(Matcher{Name: "ok", Hosts: []string{"*.example.co.uk", "localhost"}}))
	assert.ErrorIs(t, Vet(Matcher{}), ErrInvalidDefinition)
	assert.ErrorIs(t, Vet(Matcher{Name: "a/b"}), ErrInvalidDefinition)
	assert.ErrorIs(t, Vet(Matcher{Name: "x", Hosts: []string{"*."}}), ErrInvalidDefinition)
	assert.ErrorIs(t, Vet(Matcher{Name: "x", Hosts: []string{"*.github.io"}}), ErrInvalidDefinition)
	assert.ErrorIs(t, Vet(Matcher{Name: "x", PathMatchers: []PathComponent{{Name: "a/b", Operation: RequestRedirect()}}}), ErrInvalidDefinition)
	assert.ErrorIs(t, Vet(Matcher{Name: "x", PathMatchers: []PathComponent{{Name: "s", Operation: ReplaceWith("y")}}}), ErrInvalidDefinition)
}
