package types

import (
	"strings"
	"sync"
)

const unknownName = "UNKNOWN"

// primitives is the set of fundamental C/C++ type names. Multi-word spellings
// are stored in their canonical order.
var primitives = map[string]bool{
	"void":               true,
	"bool":               true,
	"char":               true,
	"signed char":        true,
	"unsigned char":      true,
	"wchar_t":            true,
	"char8_t":            true,
	"char16_t":           true,
	"char32_t":           true,
	"short":              true,
	"short int":          true,
	"unsigned short":     true,
	"unsigned short int": true,
	"int":                true,
	"signed":             true,
	"signed int":         true,
	"unsigned":           true,
	"unsigned int":       true,
	"long":               true,
	"long int":           true,
	"unsigned long":      true,
	"unsigned long int":  true,
	"long long":          true,
	"long long int":      true,
	"unsigned long long": true,
	"float":              true,
	"double":             true,
	"long double":        true,
}

// Registry canonicalizes type spellings and interns the results. It is safe
// for concurrent readers; the insertion path takes a mutex since it is not on
// the hot loop.
type Registry struct {
	mu       sync.RWMutex
	interned map[string]*Type
	aliases  map[string]string
	unknown  *Type
}

// NewRegistry creates a registry seeded with the Unknown sentinel.
func NewRegistry() *Registry {
	r := &Registry{
		interned: make(map[string]*Type),
		aliases:  make(map[string]string),
	}
	r.unknown = r.intern(unknownName, Qualifiers{}, nil)
	return r
}

// Unknown returns the sentinel type meaning "not yet inferred".
func (r *Registry) Unknown() *Type { return r.unknown }

// RegisterAlias maps a typedef-style alias to its target spelling, consulted
// by CreateFrom when resolveAlias is true.
func (r *Registry) RegisterAlias(alias, target string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[strings.TrimSpace(alias)] = strings.TrimSpace(target)
}

// IsPrimitive reports whether t is an unlayered fundamental type.
func (r *Registry) IsPrimitive(t *Type) bool {
	if t == nil || t.IsUnknown() || len(t.layers) > 0 {
		return false
	}
	return primitives[t.name]
}

// IsUnknown reports whether t is the Unknown sentinel.
func (r *Registry) IsUnknown(t *Type) bool {
	return t == nil || t.IsUnknown()
}

// CreateFrom canonicalizes a textual type spelling into an interned Type.
// Unparseable or empty spellings produce the Unknown sentinel; this is never
// an error.
func (r *Registry) CreateFrom(spelling string, resolveAlias bool) *Type {
	name, quals, layers, ok := r.parse(spelling, resolveAlias)
	if !ok {
		return r.unknown
	}
	return r.intern(name, quals, layers)
}

// parse splits a spelling into root name, qualifiers and indirection layers.
func (r *Registry) parse(spelling string, resolveAlias bool) (string, Qualifiers, []LayerKind, bool) {
	s := strings.TrimSpace(spelling)
	if s == "" || s == unknownName || s == "?" {
		return "", Qualifiers{}, nil, false
	}

	var layers []LayerKind

	// Peel indirection suffixes, innermost first so layer order ends up
	// outermost-last.
peel:
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasSuffix(s, "&&"):
			layers = append([]LayerKind{LayerReference}, layers...)
			s = s[:len(s)-2]
		case strings.HasSuffix(s, "&"):
			layers = append([]LayerKind{LayerReference}, layers...)
			s = s[:len(s)-1]
		case strings.HasSuffix(s, "*"):
			layers = append([]LayerKind{LayerPointer}, layers...)
			s = s[:len(s)-1]
		case strings.HasSuffix(s, "]"):
			open := strings.LastIndex(s, "[")
			if open < 0 {
				return "", Qualifiers{}, nil, false
			}
			layers = append([]LayerKind{LayerArray}, layers...)
			s = s[:open]
		default:
			break peel
		}
	}

	var quals Qualifiers
	words := strings.Fields(s)
	var nameWords []string
	for _, w := range words {
		switch w {
		case "const":
			quals.Const = true
		case "volatile":
			quals.Volatile = true
		case "restrict", "__restrict", "__restrict__":
			quals.Restrict = true
		case "struct", "class", "enum", "union", "typename":
			// elaborated type keyword, not part of the canonical name
		default:
			nameWords = append(nameWords, w)
		}
	}
	if len(nameWords) == 0 {
		return "", Qualifiers{}, nil, false
	}
	name := strings.Join(nameWords, " ")

	// deduced types are not known until an initializer provides them
	if name == "auto" || name == "decltype(auto)" {
		return "", Qualifiers{}, nil, false
	}

	if resolveAlias {
		r.mu.RLock()
		target, found := r.aliases[name]
		r.mu.RUnlock()
		if found {
			name = target
		}
	}

	return name, quals, layers, true
}

// intern returns the unique Type for the given shape, creating it on first
// use.
func (r *Registry) intern(name string, quals Qualifiers, layers []LayerKind) *Type {
	key := internKey(name, quals, layers)

	r.mu.RLock()
	t, ok := r.interned[key]
	r.mu.RUnlock()
	if ok {
		return t
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok = r.interned[key]; ok {
		return t
	}
	t = &Type{name: name, qualifiers: quals, layers: layers, registry: r}
	r.interned[key] = t
	return t
}

func internKey(name string, quals Qualifiers, layers []LayerKind) string {
	var sb strings.Builder
	sb.WriteString(quals.prefix())
	sb.WriteString(name)
	for _, l := range layers {
		sb.WriteString(l.String())
	}
	return sb.String()
}
