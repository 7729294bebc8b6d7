package surface

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"
	"google.golang.org/protobuf/proto"
)

// DecodeSCIP builds a surface from a serialized SCIP index.
func DecodeSCIP(data []byte) (*Surface, error) {
	var index scippb.Index
	if err := proto.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse SCIP index: %w", err)
	}
	return FromSCIP(&index), nil
}

// FromSCIP groups the global symbols defined in index into types and members.
// Symbols that live directly in a namespace (package-level functions and
// variables) become members of a type named after the namespace. Local
// symbols, parameters and type parameters are not part of the surface. For
// Go indexes only exported identifiers are kept.
func FromSCIP(index *scippb.Index) *Surface {
	s := &Surface{}
	types := make(map[string]int)

	owner := func(name, kind string) *Type {
		if i, ok := types[name]; ok {
			return &s.Types[i]
		}
		types[name] = len(s.Types)
		s.Types = append(s.Types, Type{Name: name, Kind: kind})
		return &s.Types[len(s.Types)-1]
	}

	for _, doc := range index.GetDocuments() {
		for _, info := range doc.GetSymbols() {
			sym, err := parseSymbol(info.GetSymbol())
			if err != nil || sym.local {
				continue
			}
			if s.Name == "" {
				s.Name = sym.pkg
				s.Version = sym.version
			}

			placed, ok := sym.place()
			if !ok || (sym.scheme == "scip-go" && !exported(placed.leaf)) {
				continue
			}

			if placed.isType {
				t := owner(placed.owner, "")
				t.Kind = symbolKind(info, "type")
				t.Declaration = signature(info)
				continue
			}
			t := owner(placed.owner, placed.ownerKind)
			t.Members = append(t.Members, Member{
				Name:      placed.leaf,
				Kind:      symbolKind(info, placed.memberKind),
				Signature: signature(info),
			})
		}
	}

	s.References = externalReferences(index, s.Name)
	return s
}

func externalReferences(index *scippb.Index, self string) []Reference {
	seen := make(map[string]string)
	for _, info := range index.GetExternalSymbols() {
		sym, err := parseSymbol(info.GetSymbol())
		if err != nil || sym.local || sym.pkg == "" || sym.pkg == "." || sym.pkg == self {
			continue
		}
		if _, ok := seen[sym.pkg]; !ok {
			seen[sym.pkg] = sym.version
		}
	}
	refs := make([]Reference, 0, len(seen))
	for name, version := range seen {
		refs = append(refs, Reference{Name: name, Version: version})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

func symbolKind(info *scippb.SymbolInformation, fallback string) string {
	if k := info.GetKind(); k != scippb.SymbolInformation_UnspecifiedKind {
		return strings.ToLower(k.String())
	}
	return fallback
}

func signature(info *scippb.SymbolInformation) string {
	if text := info.GetSignatureDocumentation().GetText(); text != "" {
		return strings.TrimSpace(text)
	}
	return info.GetDisplayName()
}

func exported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// symbol is a parsed SCIP symbol:
// <scheme> <manager> <package-name> <version> <descriptors>, or "local <id>".
type symbol struct {
	scheme      string
	pkg         string
	version     string
	descriptors []descriptor
	local       bool
}

// descriptor suffixes; method, parameter and type parameter get their own
// markers because their source syntax is not a single trailing byte.
const (
	suffixNamespace     = '/'
	suffixType          = '#'
	suffixTerm          = '.'
	suffixMeta          = ':'
	suffixMacro         = '!'
	suffixMethod        = 'm'
	suffixParameter     = 'p'
	suffixTypeParameter = 't'
)

type descriptor struct {
	name   string
	suffix byte
}

type placement struct {
	owner      string
	ownerKind  string
	leaf       string
	memberKind string
	isType     bool
}

// place locates the symbol on the surface: either a type, or a member of a
// type (or of a namespace).
func (s symbol) place() (placement, bool) {
	if len(s.descriptors) == 0 {
		return placement{}, false
	}
	var namespace, typePath []string
	last := len(s.descriptors) - 1
	for i, d := range s.descriptors {
		switch d.suffix {
		case suffixNamespace:
			if len(typePath) > 0 {
				return placement{}, false
			}
			namespace = append(namespace, d.name)
		case suffixType:
			typePath = append(typePath, d.name)
		case suffixTerm, suffixMethod, suffixMacro:
			if i != last {
				return placement{}, false
			}
		default:
			return placement{}, false
		}
	}

	ns := strings.Join(namespace, "/")
	leaf := s.descriptors[last]
	if leaf.suffix == suffixType {
		return placement{owner: qualify(ns, typePath), leaf: leaf.name, isType: true}, true
	}

	p := placement{leaf: leaf.name, memberKind: "field"}
	switch leaf.suffix {
	case suffixMethod:
		p.leaf += "()"
		p.memberKind = "method"
	case suffixMacro:
		p.memberKind = "macro"
	}
	if len(typePath) == 0 {
		if ns == "" {
			return placement{}, false
		}
		p.owner = ns
		p.ownerKind = "namespace"
		return p, true
	}
	p.owner = qualify(ns, typePath)
	p.ownerKind = "type"
	return p, true
}

func qualify(namespace string, typePath []string) string {
	name := strings.Join(typePath, ".")
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func parseSymbol(raw string) (symbol, error) {
	if strings.HasPrefix(raw, "local ") {
		return symbol{local: true}, nil
	}
	fields, rest, err := splitSymbolHeader(raw)
	if err != nil {
		return symbol{}, err
	}
	descs, err := parseDescriptors(rest)
	if err != nil {
		return symbol{}, fmt.Errorf("symbol %q: %w", raw, err)
	}
	return symbol{
		scheme:      fields[0],
		pkg:         fields[2],
		version:     fields[3],
		descriptors: descs,
	}, nil
}

// splitSymbolHeader reads the four space-separated header fields. A double
// space is an escaped space inside a field.
func splitSymbolHeader(raw string) ([4]string, string, error) {
	var fields [4]string
	var b strings.Builder
	n := 0
	i := 0
	for i < len(raw) && n < 4 {
		c := raw[i]
		if c == ' ' {
			if i+1 < len(raw) && raw[i+1] == ' ' {
				b.WriteByte(' ')
				i += 2
				continue
			}
			fields[n] = b.String()
			b.Reset()
			n++
			i++
			continue
		}
		b.WriteByte(c)
		i++
	}
	if n < 4 {
		return fields, "", fmt.Errorf("invalid SCIP symbol %q", raw)
	}
	return fields, raw[i:], nil
}

func parseDescriptors(s string) ([]descriptor, error) {
	var out []descriptor
	for i := 0; i < len(s); {
		switch s[i] {
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return nil, fmt.Errorf("unterminated type parameter")
			}
			out = append(out, descriptor{name: s[i+1 : i+end], suffix: suffixTypeParameter})
			i += end + 1
			continue
		case '(':
			end := strings.IndexByte(s[i:], ')')
			if end < 0 {
				return nil, fmt.Errorf("unterminated parameter")
			}
			out = append(out, descriptor{name: s[i+1 : i+end], suffix: suffixParameter})
			i += end + 1
			continue
		}

		name, n, err := readName(s[i:])
		if err != nil {
			return nil, err
		}
		i += n
		if i >= len(s) {
			return nil, fmt.Errorf("descriptor %q has no suffix", name)
		}
		switch c := s[i]; c {
		case suffixNamespace, suffixType, suffixTerm, suffixMeta, suffixMacro:
			out = append(out, descriptor{name: name, suffix: c})
			i++
		case '(':
			end := strings.Index(s[i:], ").")
			if end < 0 {
				return nil, fmt.Errorf("unterminated method %q", name)
			}
			out = append(out, descriptor{name: name, suffix: suffixMethod})
			i += end + 2
		default:
			return nil, fmt.Errorf("unexpected %q after %q", c, name)
		}
	}
	return out, nil
}

func readName(s string) (string, int, error) {
	if s[0] == '`' {
		var b strings.Builder
		for i := 1; i < len(s); i++ {
			if s[i] != '`' {
				b.WriteByte(s[i])
				continue
			}
			if i+1 < len(s) && s[i+1] == '`' {
				b.WriteByte('`')
				i++
				continue
			}
			return b.String(), i + 1, nil
		}
		return "", 0, fmt.Errorf("unterminated escaped name")
	}
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	if i == 0 {
		return "", 0, fmt.Errorf("expected name at %q", s)
	}
	return s[:i], i, nil
}

func isIdentByte(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '_', c == '+', c == '-', c == '$', c >= 0x80:
		return true
	}
	return false
}
