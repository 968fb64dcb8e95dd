package cleanurl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/getlantern/mtime"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	opDrop            = "drop"
	opReplaceWith     = "replace-with"
	opRequestRedirect = "request-redirect"
)

// definition is the on-disk shape of a matcher. The name is not part of it;
// it comes from the file the definition was read from.
type definition struct {
	Hosts              []string              `toml:"hosts" yaml:"hosts"`
	TerminatesMatching *bool                 `toml:"terminates_matching" yaml:"terminates_matching"`
	ParamMatchers      []componentDefinition `toml:"param_matchers" yaml:"param_matchers"`
	PathMatchers       []componentDefinition `toml:"path_matchers" yaml:"path_matchers"`
}

// componentDefinition is a param or path rule. Operation is either a bare tag
// ("drop", "request-redirect") or a one-entry table {replace-with = "value"}.
type componentDefinition struct {
	Name      string      `toml:"name" yaml:"name"`
	Operation interface{} `toml:"operation" yaml:"operation"`
}

// IsDefinitionFile reports whether the file name has an extension the loader
// understands.
func IsDefinitionFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeMatcher decodes one matcher definition and stamps it with name. The
// format is chosen by ext (".toml", ".yaml" or ".yml"). Unknown fields are
// rejected.
func DecodeMatcher(name, ext string, data []byte) (Matcher, error) {
	var def definition
	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return Matcher{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
			return Matcher{}, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
		}
	default:
		return Matcher{}, fmt.Errorf("%w: unsupported format %q", ErrInvalidDefinition, ext)
	}

	m := Matcher{
		Name:               name,
		Hosts:              def.Hosts,
		TerminatesMatching: true,
	}
	if def.TerminatesMatching != nil {
		m.TerminatesMatching = *def.TerminatesMatching
	}
	for i, pd := range def.ParamMatchers {
		op, err := decodeOperation(pd.Operation)
		if err != nil {
			return Matcher{}, fmt.Errorf("param_matchers[%d] %q: %w", i, pd.Name, err)
		}
		m.ParamMatchers = append(m.ParamMatchers, Param{Name: pd.Name, Operation: op})
	}
	for i, pd := range def.PathMatchers {
		op, err := decodeOperation(pd.Operation)
		if err != nil {
			return Matcher{}, fmt.Errorf("path_matchers[%d] %q: %w", i, pd.Name, err)
		}
		m.PathMatchers = append(m.PathMatchers, PathComponent{Name: pd.Name, Operation: op})
	}
	if err := Vet(m); err != nil {
		return Matcher{}, err
	}
	return m, nil
}

func decodeOperation(raw interface{}) (Operation, error) {
	switch v := raw.(type) {
	case nil:
		return Drop(), nil
	case string:
		switch v {
		case opDrop:
			return Drop(), nil
		case opRequestRedirect:
			return RequestRedirect(), nil
		case opReplaceWith:
			return Operation{}, fmt.Errorf("%w: %s needs a value", ErrInvalidDefinition, opReplaceWith)
		}
		return Operation{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidDefinition, v)
	case map[string]interface{}:
		if len(v) != 1 {
			return Operation{}, fmt.Errorf("%w: operation table must have exactly one entry", ErrInvalidDefinition)
		}
		value, ok := v[opReplaceWith]
		if !ok {
			for tag := range v {
				return Operation{}, fmt.Errorf("%w: unknown operation %q", ErrInvalidDefinition, tag)
			}
		}
		s, ok := value.(string)
		if !ok {
			return Operation{}, fmt.Errorf("%w: %s value must be a string, got %T", ErrInvalidDefinition, opReplaceWith, value)
		}
		return ReplaceWith(s), nil
	}
	return Operation{}, fmt.Errorf("%w: operation has unsupported type %T", ErrInvalidDefinition, raw)
}

// LoadDir reads every definition file below dir and builds a RuleSet from
// them. Files are visited in lexical order and the matcher named "global" is
// moved to the front. Errors name the offending file.
func LoadDir(dir string) (*RuleSet, error) {
	return loadFS(os.DirFS(dir), ".", func(p string) string {
		return filepath.Join(dir, filepath.FromSlash(p))
	})
}

// LoadFS is LoadDir for an fs.FS, starting at root.
func LoadFS(fsys fs.FS, root string) (*RuleSet, error) {
	return loadFS(fsys, root, func(p string) string { return p })
}

func loadFS(fsys fs.FS, root string, display func(string) string) (*RuleSet, error) {
	start := mtime.Now()
	var matchers []Matcher
	seen := make(map[string]string)
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return &RuleLoadError{Path: display(p), Err: err}
		}
		if d.IsDir() || !IsDefinitionFile(p) {
			return nil
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return &RuleLoadError{Path: display(p), Err: err}
		}
		base := path.Base(p)
		ext := path.Ext(base)
		name := strings.TrimSuffix(base, ext)
		m, err := DecodeMatcher(name, ext, data)
		if err != nil {
			return &RuleLoadError{Path: display(p), Err: err}
		}
		if prev, dup := seen[name]; dup {
			return &RuleLoadError{
				Path: display(p),
				Err:  fmt.Errorf("%w: matcher %q already defined in %s", ErrInvalidDefinition, name, prev),
			}
		}
		seen[name] = display(p)
		matchers = append(matchers, m)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rs, err := NewRuleSet(matchers...)
	if err != nil {
		return nil, err
	}
	log.Debugf("Loaded %d matchers from %v in %v", rs.Len(), display(root), mtime.Now().Sub(start))
	return rs, nil
}
