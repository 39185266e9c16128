package fpdb

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex matches what counts as a numeric-looking string for ?d and ?f:
// optional sign, digits with an optional fraction, optional exponent, and
// surrounding whitespace.
var numericRegex = regexp.MustCompile(`^\s*[+-]?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)(?:[eE][+-]?[0-9]+)?\s*$`)

// converter renders Values as SQL text for one dialect and escaper.
type converter struct {
	dialect Dialect
	esc     Escaper
}

// convert renders v for a placeholder of kind k. The Skip marker never reaches
// here; the assembler resolves it against the enclosing block.
func (c converter) convert(k Kind, v Value) (string, error) {
	if _, ok := v.(Null); ok {
		if k.Nullable() {
			return "NULL", nil
		}
		return "", fmt.Errorf("%w: NULL is not allowed for %s", ErrConversion, k.Token())
	}

	switch k {
	case KindInt:
		return c.toInt(v)
	case KindFloat:
		return c.toFloat(v)
	case KindArray:
		return c.toArray(v)
	case KindIdent:
		return c.toIdent(v)
	case KindAuto:
		return c.toAuto(v)
	default:
		return "", fmt.Errorf("%w: unknown placeholder kind %d", ErrConversion, k)
	}
}

func (c converter) toInt(v Value) (string, error) {
	switch x := v.(type) {
	case Bool:
		return boolDigit(bool(x)), nil
	case Int:
		return strconv.FormatInt(int64(x), 10), nil
	case Float:
		if n, ok := truncate(float64(x)); ok {
			return strconv.FormatInt(n, 10), nil
		}
	case Str:
		if n, ok := parseIntLike(string(x)); ok {
			return strconv.FormatInt(n, 10), nil
		}
	}
	return "", wrongValue("int", v)
}

func (c converter) toFloat(v Value) (string, error) {
	switch x := v.(type) {
	case Bool:
		return boolDigit(bool(x)), nil
	case Int:
		return strconv.FormatInt(int64(x), 10), nil
	case Float:
		f := float64(x)
		if !math.IsNaN(f) && !math.IsInf(f, 0) {
			return formatFloat(f), nil
		}
	case Str:
		if f, ok := parseFloatLike(string(x)); ok {
			return formatFloat(f), nil
		}
	}
	return "", wrongValue("float", v)
}

func (c converter) toArray(v Value) (string, error) {
	var parts []string
	switch x := v.(type) {
	case List:
		parts = make([]string, len(x))
		for i, el := range x {
			s, err := c.toAuto(el)
			if err != nil {
				return "", fmt.Errorf("element %d: %w", i, err)
			}
			parts[i] = s
		}
	case Map:
		parts = make([]string, len(x))
		for i, p := range x {
			s, err := c.toAuto(p.Value)
			if err != nil {
				return "", fmt.Errorf("key %q: %w", p.Key, err)
			}
			parts[i] = quoteIdent(c.dialect, c.esc, p.Key) + " = " + s
		}
	default:
		return "", wrongValue("array", v)
	}
	return strings.Join(parts, ", "), nil
}

func (c converter) toIdent(v Value) (string, error) {
	var names []Value
	switch x := v.(type) {
	case List:
		names = x
	case Map:
		names = make([]Value, len(x))
		for i, p := range x {
			names[i] = p.Value
		}
	default:
		names = []Value{v}
	}
	parts := make([]string, len(names))
	for i, n := range names {
		var raw string
		switch x := n.(type) {
		case Str:
			raw = string(x)
		case Int:
			raw = strconv.FormatInt(int64(x), 10)
		case Float:
			raw = formatFloat(float64(x))
		default:
			return "", wrongValue("identifier", n)
		}
		parts[i] = quoteIdent(c.dialect, c.esc, raw)
	}
	return strings.Join(parts, ", "), nil
}

// toAuto picks the conversion from the value itself. It also renders the
// elements of ?a collections.
func (c converter) toAuto(v Value) (string, error) {
	switch x := v.(type) {
	case Null:
		return "NULL", nil
	case Int:
		return c.toInt(x)
	case Float:
		return c.toFloat(x)
	case Str:
		return quoteString(c.esc, string(x)), nil
	}
	return "", wrongValue("", v)
}

// wrongValue builds the ErrConversion for v rejected by the named conversion.
func wrongValue(kind string, v Value) error {
	if kind != "" {
		kind += " "
	}
	return fmt.Errorf("%w: wrong %sarg value %s", ErrConversion, kind, describe(v))
}

// describe names a Value for error messages without echoing long payloads.
func describe(v Value) string {
	switch x := v.(type) {
	case Null:
		return "NULL"
	case Bool:
		return fmt.Sprintf("bool(%t)", bool(x))
	case Int:
		return fmt.Sprintf("int(%d)", int64(x))
	case Float:
		return fmt.Sprintf("float(%g)", float64(x))
	case Str:
		const limit = 32
		s := string(x)
		if len(s) > limit {
			s = s[:limit] + "..."
		}
		return fmt.Sprintf("string(%q)", s)
	case List:
		return fmt.Sprintf("list(len=%d)", len(x))
	case Map:
		return fmt.Sprintf("map(len=%d)", len(x))
	case skip:
		return "skip"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func boolDigit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// formatFloat renders f in plain decimal notation with the fewest digits that
// round-trip.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// truncate converts f to int64 toward zero; ok is false when f is NaN or out
// of range.
func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// parseIntLike reads a numeric-looking string as an integer, truncating any
// fraction or exponent.
func parseIntLike(s string) (int64, bool) {
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return truncate(f)
}

// parseFloatLike reads a numeric-looking string as a float.
func parseFloatLike(s string) (float64, bool) {
	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
