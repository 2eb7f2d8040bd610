package judge

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// This file implements the semantic output comparison: judge stdout and the
// expected output are parsed as literal values (numbers, strings, booleans,
// null/None, lists, tuples, dicts) in either Python or JSON notation and
// compared structurally. Anything unparseable falls back to trimmed string
// equality.

// literalParser walks a literal expression left to right.
type literalParser struct {
	input string
	pos   int
}

// ParseLiteral parses s as a literal value. Returned values are nil, bool,
// int64, float64, string, []any (lists and tuples), or map[string]any.
func ParseLiteral(s string) (any, error) {
	p := &literalParser{input: strings.TrimSpace(s)}

	value, err := p.parseValue()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing content at offset %d", p.pos)
	}

	return value, nil
}

// SemanticEqual compares judge output against the expected output. Both sides
// are parsed as literals when possible and compared structurally; otherwise
// the comparison degrades to trimmed string equality.
func SemanticEqual(actual, expected string) bool {
	actual = strings.TrimSpace(actual)
	expected = strings.TrimSpace(expected)

	actualValue, actualErr := ParseLiteral(actual)
	expectedValue, expectedErr := ParseLiteral(expected)

	if actualErr == nil && expectedErr == nil {
		return literalEqual(actualValue, expectedValue)
	}

	return actual == expected
}

func (p *literalParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t' || p.input[p.pos] == '\n' || p.input[p.pos] == '\r') {
		p.pos++
	}
}

func (p *literalParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *literalParser) parseValue() (any, error) {
	p.skipSpace()

	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch {
	case c == '[':
		return p.parseSequence('[', ']')
	case c == '(':
		return p.parseSequence('(', ')')
	case c == '{':
		return p.parseDict()
	case c == '\'' || c == '"':
		return p.parseString(c)
	case c == '-' || c == '+' || (c >= '0' && c <= '9') || c == '.':
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

// parseSequence handles lists and tuples; both compare as ordered sequences.
func (p *literalParser) parseSequence(open, close byte) (any, error) {
	p.pos++ // consume open

	items := []any{}

	p.skipSpace()
	if c, ok := p.peek(); ok && c == close {
		p.pos++
		return items, nil
	}

	for {
		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated sequence")
		}

		switch c {
		case ',':
			p.pos++
			// trailing comma before the closer is legal in Python
			p.skipSpace()
			if c, ok := p.peek(); ok && c == close {
				p.pos++
				return items, nil
			}
		case close:
			p.pos++
			return items, nil
		default:
			return nil, fmt.Errorf("unexpected character %q in sequence", c)
		}
	}
}

func (p *literalParser) parseDict() (any, error) {
	p.pos++ // consume '{'

	dict := map[string]any{}

	p.skipSpace()
	if c, ok := p.peek(); ok && c == '}' {
		p.pos++
		return dict, nil
	}

	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated dict")
		}
		if c != '\'' && c != '"' {
			return nil, fmt.Errorf("dict keys must be strings")
		}

		key, err := p.parseString(c)
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if c, ok := p.peek(); !ok || c != ':' {
			return nil, fmt.Errorf("expected ':' after dict key")
		}
		p.pos++

		value, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		dict[key.(string)] = value

		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated dict")
		}

		switch c {
		case ',':
			p.pos++
			p.skipSpace()
			if c, ok := p.peek(); ok && c == '}' {
				p.pos++
				return dict, nil
			}
		case '}':
			p.pos++
			return dict, nil
		default:
			return nil, fmt.Errorf("unexpected character %q in dict", c)
		}
	}
}

func (p *literalParser) parseString(quote byte) (any, error) {
	p.pos++ // consume opening quote

	var sb strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]

		if c == '\\' && p.pos+1 < len(p.input) {
			next := p.input[p.pos+1]
			switch next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '\'', '"':
				sb.WriteByte(next)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(next)
			}
			p.pos += 2
			continue
		}

		if c == quote {
			p.pos++
			return sb.String(), nil
		}

		sb.WriteByte(c)
		p.pos++
	}

	return nil, fmt.Errorf("unterminated string")
}

func (p *literalParser) parseNumber() (any, error) {
	start := p.pos

	if c, ok := p.peek(); ok && (c == '-' || c == '+') {
		p.pos++
	}

	isFloat := false
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		if c == '.' || c == 'e' || c == 'E' {
			isFloat = true
			p.pos++
			continue
		}
		if (c == '-' || c == '+') && isFloat && (p.input[p.pos-1] == 'e' || p.input[p.pos-1] == 'E') {
			p.pos++
			continue
		}
		break
	}

	text := p.input[start:p.pos]
	if text == "" || text == "-" || text == "+" {
		return nil, fmt.Errorf("invalid number")
	}

	if !isFloat {
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return n, nil
		}
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return f, nil
}

func (p *literalParser) parseKeyword() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}

	switch p.input[start:p.pos] {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null":
		return nil, nil
	default:
		return nil, fmt.Errorf("unrecognized token %q", p.input[start:p.pos])
	}
}

// literalEqual compares parsed literals structurally. Integers and floats
// holding the same value compare equal, matching the source judges' behavior.
func literalEqual(a, b any) bool {
	if an, aok := asFloat(a); aok {
		bn, bok := asFloat(b)
		return bok && an == bn
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !literalEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, present := bv[k]
			if !present || !literalEqual(v, bvv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// renderPython prints a parsed literal in Python notation, used to build the
// canonical stdin for harnesses that read a Python literal.
func renderPython(v any) string {
	switch value := v.(type) {
	case nil:
		return "None"
	case bool:
		if value {
			return "True"
		}
		return "False"
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case string:
		return "'" + strings.NewReplacer("\\", "\\\\", "'", "\\'").Replace(value) + "'"
	case []any:
		parts := make([]string, len(value))
		for i, item := range value {
			parts[i] = renderPython(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = renderPython(k) + ": " + renderPython(value[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", value)
	}
}

// renderJSON prints a parsed literal in JSON notation for harnesses that
// JSON.parse their stdin.
func renderJSON(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case bool:
		if value {
			return "true"
		}
		return "false"
	case int64:
		return strconv.FormatInt(value, 10)
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case string:
		return strconv.Quote(value)
	case []any:
		parts := make([]string, len(value))
		for i, item := range value {
			parts[i] = renderJSON(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(value))
		for k := range value {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(k) + ": " + renderJSON(value[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", value)
	}
}
