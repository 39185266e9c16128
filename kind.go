package fpdb

import (
	"regexp"
	"strings"
)

// Kind is the typing discipline attached to a placeholder token.
type Kind uint8

const (
	KindAuto  Kind = iota // ?
	KindInt               // ?d
	KindFloat             // ?f
	KindArray             // ?a
	KindIdent             // ?#
)

// kindsBySpecificity lists every kind with the bare ? last, so that the
// alternation built from it prefers ?d over ? followed by a literal d.
var kindsBySpecificity = [...]Kind{KindInt, KindFloat, KindArray, KindIdent, KindAuto}

var placeholderRegex = compilePlaceholderRegex()

// Token returns the literal placeholder text for k.
func (k Kind) Token() string {
	switch k {
	case KindAuto:
		return "?"
	case KindInt:
		return "?d"
	case KindFloat:
		return "?f"
	case KindArray:
		return "?a"
	case KindIdent:
		return "?#"
	default:
		return ""
	}
}

// Nullable reports whether a NULL argument is accepted for k.
func (k Kind) Nullable() bool {
	switch k {
	case KindAuto, KindInt, KindFloat:
		return true
	default:
		return false
	}
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindArray:
		return "array"
	case KindIdent:
		return "identifier"
	default:
		return "unknown"
	}
}

// kindOf maps a token back to its kind.
func kindOf(token string) (Kind, bool) {
	for _, k := range kindsBySpecificity {
		if k.Token() == token {
			return k, true
		}
	}
	return 0, false
}

func compilePlaceholderRegex() *regexp.Regexp {
	alts := make([]string, len(kindsBySpecificity))
	for i, k := range kindsBySpecificity {
		alts[i] = regexp.QuoteMeta(k.Token())
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}
