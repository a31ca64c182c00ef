package tracking

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/mltrack/mltrack/internal/store"
)

// The search filter language: AND-joined comparisons over entity fields,
// e.g. `metrics.acc > 0.92 AND tags.team = 'vision'`.

type fieldKind string

const (
	fieldMetric    fieldKind = "metrics"
	fieldParam     fieldKind = "params"
	fieldTag       fieldKind = "tags"
	fieldAttribute fieldKind = "attributes"
)

type comparator string

const (
	opEq   comparator = "="
	opNe   comparator = "!="
	opGt   comparator = ">"
	opGe   comparator = ">="
	opLt   comparator = "<"
	opLe   comparator = "<="
	opLike comparator = "LIKE"
)

type comparison struct {
	kind fieldKind
	key  string
	op   comparator

	strValue  string
	numValue  float64
	isNumeric bool
}

type filter struct {
	comparisons []comparison
}

// parseFilter compiles a filter expression. An empty expression matches
// everything.
func parseFilter(expr string) (*filter, error) {
	lex := &lexer{input: expr}
	result := &filter{}

	for {
		lex.skipSpace()
		if lex.done() {
			break
		}
		if len(result.comparisons) > 0 {
			word, err := lex.readWord()
			if err != nil || !strings.EqualFold(word, "AND") {
				return nil, store.NewSchemaValidation("expected AND at position %d in filter %q", lex.pos, expr)
			}
			lex.skipSpace()
		}

		cmp, err := lex.readComparison()
		if err != nil {
			return nil, err
		}
		result.comparisons = append(result.comparisons, *cmp)
	}

	return result, nil
}

type lexer struct {
	input string
	pos   int
}

func (l *lexer) done() bool {
	return l.pos >= len(l.input)
}

func (l *lexer) skipSpace() {
	for !l.done() && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}

func (l *lexer) readWord() (string, error) {
	start := l.pos
	for !l.done() {
		c := rune(l.input[l.pos])
		if unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '.' || c == '-' {
			l.pos++
			continue
		}
		break
	}
	if l.pos == start {
		return "", store.NewSchemaValidation("unexpected character at position %d in filter", l.pos)
	}
	return l.input[start:l.pos], nil
}

func (l *lexer) readComparison() (*comparison, error) {
	ident, err := l.readWord()
	if err != nil {
		return nil, err
	}
	kind, key, err := splitIdentifier(ident)
	if err != nil {
		return nil, err
	}

	l.skipSpace()
	op, err := l.readComparator()
	if err != nil {
		return nil, err
	}

	l.skipSpace()
	cmp := &comparison{kind: kind, key: key, op: op}
	if err := l.readValue(cmp); err != nil {
		return nil, err
	}

	if op == opLike && cmp.isNumeric {
		return nil, store.NewSchemaValidation("LIKE requires a quoted string value")
	}
	return cmp, nil
}

func (l *lexer) readComparator() (comparator, error) {
	rest := l.input[l.pos:]
	switch {
	case strings.HasPrefix(rest, "!="):
		l.pos += 2
		return opNe, nil
	case strings.HasPrefix(rest, ">="):
		l.pos += 2
		return opGe, nil
	case strings.HasPrefix(rest, "<="):
		l.pos += 2
		return opLe, nil
	case strings.HasPrefix(rest, "="):
		l.pos++
		return opEq, nil
	case strings.HasPrefix(rest, ">"):
		l.pos++
		return opGt, nil
	case strings.HasPrefix(rest, "<"):
		l.pos++
		return opLt, nil
	case len(rest) >= 4 && strings.EqualFold(rest[:4], "LIKE"):
		l.pos += 4
		return opLike, nil
	}
	return "", store.NewSchemaValidation("expected comparator at position %d in filter", l.pos)
}

func (l *lexer) readValue(cmp *comparison) error {
	if l.done() {
		return store.NewSchemaValidation("filter ends before a value")
	}
	c := l.input[l.pos]
	if c == '\'' || c == '"' {
		quote := c
		l.pos++
		start := l.pos
		for !l.done() && l.input[l.pos] != quote {
			l.pos++
		}
		if l.done() {
			return store.NewSchemaValidation("unterminated string in filter")
		}
		cmp.strValue = l.input[start:l.pos]
		l.pos++
		return nil
	}

	word, err := l.readWord()
	if err != nil {
		return err
	}
	num, err := strconv.ParseFloat(word, 64)
	if err != nil {
		return store.NewSchemaValidation("unquoted filter value %q is not a number", word)
	}
	cmp.numValue = num
	cmp.isNumeric = true
	return nil
}

func splitIdentifier(ident string) (fieldKind, string, error) {
	parts := strings.SplitN(ident, ".", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", "", store.NewSchemaValidation("filter field %q must be qualified, e.g. metrics.%s", ident, ident)
	}
	kind := fieldKind(parts[0])
	switch kind {
	case fieldMetric, fieldParam, fieldTag, fieldAttribute:
		return kind, parts[1], nil
	}
	return "", "", store.NewSchemaValidation("unknown filter namespace %q", parts[0])
}

// likeMatch supports SQL LIKE with % wildcards only.
func likeMatch(pattern, value string) bool {
	parts := strings.Split(pattern, "%")
	if len(parts) == 1 {
		return pattern == value
	}
	if !strings.HasPrefix(value, parts[0]) {
		return false
	}
	value = value[len(parts[0]):]
	for i := 1; i < len(parts)-1; i++ {
		idx := strings.Index(value, parts[i])
		if idx < 0 {
			return false
		}
		value = value[idx+len(parts[i]):]
	}
	return strings.HasSuffix(value, parts[len(parts)-1])
}

func (c *comparison) matchNumber(value float64) bool {
	if !c.isNumeric {
		return false
	}
	switch c.op {
	case opEq:
		return value == c.numValue
	case opNe:
		return value != c.numValue
	case opGt:
		return value > c.numValue
	case opGe:
		return value >= c.numValue
	case opLt:
		return value < c.numValue
	case opLe:
		return value <= c.numValue
	}
	return false
}

func (c *comparison) matchString(value string) bool {
	if c.isNumeric {
		// Numeric comparisons against string fields compare parseable values.
		num, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return false
		}
		return c.matchNumber(num)
	}
	switch c.op {
	case opEq:
		return value == c.strValue
	case opNe:
		return value != c.strValue
	case opGt:
		return value > c.strValue
	case opGe:
		return value >= c.strValue
	case opLt:
		return value < c.strValue
	case opLe:
		return value <= c.strValue
	case opLike:
		return likeMatch(c.strValue, value)
	}
	return false
}
