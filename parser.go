package fpdb

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholder is one recognized token occurrence in a template.
type placeholder struct {
	kind       Kind
	start, end int // byte offsets of the token
}

// blockRegex matches a conditional block: a {...} span holding no other brace.
// Nested braces are not a grammar feature; with "{a {b} c}" only "{b}" is a
// block and the outer braces stay as literal text.
var blockRegex = regexp.MustCompile(`\{[^{}]*\}`)

// build performs the query construction. It scans the template, converts
// every argument for its placeholder, then writes the template out with each
// placeholder replaced by its value and each conditional block either
// unwrapped or dropped.
func build(db *DB, q string, args []any) (string, error) {
	phs := scan(q)
	if len(phs) != len(args) {
		return "", fmt.Errorf("%w: template has %d placeholders, got %d arguments", ErrArgumentCount, len(phs), len(args))
	}
	if limit := db.config.MaxParams; limit > 0 && len(phs) > limit {
		return "", fmt.Errorf("%w: requested=%d, limit=%d", ErrTooManyParams, len(phs), limit)
	}

	conv := converter{dialect: db.dialect, esc: db.config.Escaper}
	vals := make([]string, len(phs))
	skipped := make([]bool, len(phs))
	for i, ph := range phs {
		v, err := ValueOf(args[i])
		if err != nil {
			return "", fmt.Errorf("placeholder #%d (%s): %w", i+1, ph.kind.Token(), err)
		}
		if isSkip(v) {
			skipped[i] = true
			continue
		}
		s, err := conv.convert(ph.kind, v)
		if err != nil {
			return "", fmt.Errorf("placeholder #%d (%s): %w", i+1, ph.kind.Token(), err)
		}
		vals[i] = s
	}

	return resolve(q, phs, vals, skipped)
}

// scan returns every placeholder of q in template order, duplicates included.
// There is no escape for a literal '?': any '?' is a placeholder.
func scan(q string) []placeholder {
	locs := placeholderRegex.FindAllStringIndex(q, -1)
	out := make([]placeholder, 0, len(locs))
	for _, loc := range locs {
		k, ok := kindOf(q[loc[0]:loc[1]])
		if !ok {
			continue
		}
		out = append(out, placeholder{kind: k, start: loc[0], end: loc[1]})
	}
	return out
}

// blocks returns the [start, end) offsets of every conditional block in q.
func blocks(q string) [][]int {
	return blockRegex.FindAllStringIndex(q, -1)
}

// resolve writes q with placeholders substituted by vals. A block holding a
// skipped placeholder is removed together with its braces; any other block
// loses its braces and keeps its contents. Substituted text is never scanned
// again, so values containing '?' or braces come out verbatim.
func resolve(q string, phs []placeholder, vals []string, skipped []bool) (string, error) {
	var buf strings.Builder
	grow := len(q)
	for _, v := range vals {
		grow += len(v)
	}
	buf.Grow(grow)

	next := 0 // index of the first placeholder not yet written

	// emit writes q[from:to], substituting the placeholders inside it.
	emit := func(from, to int) error {
		for next < len(phs) && phs[next].start < to {
			ph := phs[next]
			if skipped[next] {
				return fmt.Errorf("%w: %w: placeholder #%d (%s)", ErrSkipOutsideBlock, ErrConversion, next+1, ph.kind.Token())
			}
			buf.WriteString(q[from:ph.start])
			buf.WriteString(vals[next])
			from = ph.end
			next++
		}
		buf.WriteString(q[from:to])
		return nil
	}

	pos := 0
	for _, blk := range blocks(q) {
		start, end := blk[0], blk[1]
		if err := emit(pos, start); err != nil {
			return "", err
		}

		first := next
		for next < len(phs) && phs[next].start < end {
			next++
		}
		drop := false
		for i := first; i < next; i++ {
			if skipped[i] {
				drop = true
				break
			}
		}

		if !drop {
			next = first
			if err := emit(start+1, end-1); err != nil {
				return "", err
			}
		}
		pos = end
	}
	if err := emit(pos, len(q)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
