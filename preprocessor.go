package cleanurl

import (
	"bytes"
	"fmt"
	"go/format"
	"os"
	"strings"

	"github.com/getlantern/golog"
	"golang.org/x/net/publicsuffix"
)

//go:generate go run ./preprocess -dir matchers -out builtin_matchers.go

// Preprocessor bakes a directory of matcher definitions into Go source that
// Builtin serves at runtime.
var Preprocessor = &preprocessor{
	log: golog.LoggerFor("cleanurl-preprocessor"),
}

type preprocessor struct {
	log golog.Logger
}

// Preprocess loads all definitions in dir and writes the generated table to
// out.
func (p *preprocessor) Preprocess(dir, out string) error {
	rs, err := LoadDir(dir)
	if err != nil {
		return err
	}
	src, err := p.Generate(rs)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, src, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	p.log.Debugf("Wrote %d matchers from %v to %v", rs.Len(), dir, out)
	return nil
}

// Generate renders rs as the body of builtin_matchers.go.
func (p *preprocessor) Generate(rs *RuleSet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("// Code generated by preprocess; DO NOT EDIT.\n\n")
	buf.WriteString("package cleanurl\n\n")
	buf.WriteString("func builtinMatchers() []Matcher {\n\treturn []Matcher{\n")
	for _, m := range rs.Matchers() {
		buf.WriteString("\t\t{\n")
		fmt.Fprintf(&buf, "\t\t\tName: %q,\n", m.Name)
		if len(m.Hosts) > 0 {
			quoted := make([]string, len(m.Hosts))
			for i, h := range m.Hosts {
				quoted[i] = fmt.Sprintf("%q", h)
			}
			fmt.Fprintf(&buf, "\t\t\tHosts: []string{%s},\n", strings.Join(quoted, ", "))
		}
		fmt.Fprintf(&buf, "\t\t\tTerminatesMatching: %v,\n", m.TerminatesMatching)
		if len(m.ParamMatchers) > 0 {
			buf.WriteString("\t\t\tParamMatchers: []Param{\n")
			for _, pm := range m.ParamMatchers {
				fmt.Fprintf(&buf, "\t\t\t\t{Name: %q, Operation: %s},\n", pm.Name, goExpr(pm.Operation))
			}
			buf.WriteString("\t\t\t},\n")
		}
		if len(m.PathMatchers) > 0 {
			buf.WriteString("\t\t\tPathMatchers: []PathComponent{\n")
			for _, pm := range m.PathMatchers {
				fmt.Fprintf(&buf, "\t\t\t\t{Name: %q, Operation: %s},\n", pm.Name, goExpr(pm.Operation))
			}
			buf.WriteString("\t\t\t},\n")
		}
		buf.WriteString("\t\t},\n")
	}
	buf.WriteString("\t}\n}\n")

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("formatting generated matchers: %w", err)
	}
	return src, nil
}

func goExpr(op Operation) string {
	switch op.Kind() {
	case OpReplaceWith:
		return fmt.Sprintf("ReplaceWith(%q)", op.Value())
	case OpRequestRedirect:
		return "RequestRedirect()"
	default:
		return "Drop()"
	}
}

// Vet checks that a matcher conforms to the rule schema. Host wildcards must
// be a leading "*." label and must not span a whole public suffix, param names
// may carry a single leading or trailing '*', and path matchers may only
// request redirects.
func Vet(m Matcher) error {
	if m.Name == "" || strings.ContainsAny(m.Name, `/\`) {
		return fmt.Errorf("%w: bad matcher name %q", ErrInvalidDefinition, m.Name)
	}
	for _, host := range m.Hosts {
		if err := vetHost(host); err != nil {
			return err
		}
	}
	for _, pm := range m.ParamMatchers {
		name := pm.Name
		stars := strings.Count(name, "*")
		if name == "" || name == "*" || stars > 1 ||
			(stars == 1 && !strings.HasPrefix(name, "*") && !strings.HasSuffix(name, "*")) {
			return fmt.Errorf("%w: bad param name %q in %s", ErrInvalidDefinition, name, m.Name)
		}
	}
	for _, pm := range m.PathMatchers {
		if pm.Name == "" || strings.Contains(pm.Name, "/") {
			return fmt.Errorf("%w: bad path segment %q in %s", ErrInvalidDefinition, pm.Name, m.Name)
		}
		if pm.Operation.Kind() != OpRequestRedirect {
			return fmt.Errorf("%w: path segment %q in %s uses %v, only %s is supported",
				ErrInvalidDefinition, pm.Name, m.Name, pm.Operation, opRequestRedirect)
		}
	}
	return nil
}

func vetHost(host string) error {
	suffix, wildcard := strings.CutPrefix(host, wildcardLabel)
	if suffix == "" || strings.ContainsAny(suffix, "*/: ") {
		return fmt.Errorf("%w: bad host pattern %q", ErrInvalidDefinition, host)
	}
	if wildcard {
		// We ignore the second return value which just says whether the
		// suffix is ICANN managed.
		ps, _ := publicsuffix.PublicSuffix(strings.ToLower(suffix))
		if ps == strings.ToLower(suffix) {
			return fmt.Errorf("%w: host pattern %q covers the public suffix %q", ErrInvalidDefinition, host, ps)
		}
	}
	return nil
}
