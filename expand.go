package mologs

import (
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Params holds named values for template expansion: the parameter tree.
// Values may be scalars, nested Params/maps, or sequences.
type Params map[string]any

// parsedTemplates caches template text -> token sequence. Process lifetime,
// cleared only by the test reset.
var parsedTemplates sync.Map

func parsedTokens(template string) ([]Token, error) {
	if v, ok := parsedTemplates.Load(template); ok {
		return v.([]Token), nil
	}
	tokens, err := ParseTemplate(template)
	if err != nil {
		return nil, err
	}
	actual, _ := parsedTemplates.LoadOrStore(template, tokens)
	return actual.([]Token), nil
}

// ExpandTemplate renders a template against a parameter tree.
//
// Three template shapes are accepted:
//   - a plain string with {name|formatter} expressions,
//   - Params{"from": path, "template": t, "separator": s} — render t against
//     each element of the sequence at path, joined by s,
//   - []any — each element rendered independently and concatenated.
//
// Expansion never panics and never fails loudly: a failing expression renders
// an inline error marker, and a malformed template returns
// "FAIL TO EXPAND: " followed by the template itself. Logging must not crash
// the caller.
func ExpandTemplate(template any, value Params) (out string) {
	fallback := func() string {
		if s, ok := template.(string); ok {
			return "FAIL TO EXPAND: " + s
		}
		return "FAIL TO EXPAND: " + toString(template)
	}
	defer func() {
		if r := recover(); r != nil {
			out = fallback()
		}
	}()
	out, err := expandAny(template, []any{value})
	if err != nil {
		return fallback()
	}
	return out
}

// expandAny renders any of the three template shapes against the context
// stack seq; seq's last element is the current context.
func expandAny(template any, seq []any) (string, error) {
	switch t := template.(type) {
	case string:
		return simpleExpand(t, seq)
	case Params:
		return expandRepeat(t, seq)
	case map[string]any:
		return expandRepeat(t, seq)
	case []any:
		var b strings.Builder
		for _, sub := range t {
			s, err := expandAny(sub, seq)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	default:
		return "", errors.Errorf("can not handle template of type %T", template)
	}
}

// expandRepeat renders the {"from", "template", "separator"} shape: the
// sequence at from is iterated with each element pushed onto the context
// stack.
func expandRepeat(t map[string]any, seq []any) (string, error) {
	from, _ := t["from"].(string)
	if from == "" {
		return "", errors.New("expecting template to have 'from' attribute")
	}
	sub := t["template"]
	if sub == nil {
		return "", errors.New("expecting template to have 'template' attribute")
	}
	sep := ""
	if s, ok := t["separator"].(string); ok {
		sep = s
	}
	items, ok := toAnySlice(lookupPath(seq[len(seq)-1], from))
	if !ok {
		return "", errors.Errorf("expecting a sequence at %q", from)
	}
	parts := make([]string, 0, len(items))
	for _, d := range items {
		s, err := expandAny(sub, append(seq, d))
		if err != nil {
			return "", err
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}

func simpleExpand(template string, seq []any) (string, error) {
	tokens, err := parsedTokens(template)
	if err != nil {
		return "", err
	}
	return expandTokens(tokens, seq), nil
}

func expandTokens(tokens []Token, seq []any) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(tok.Text)
		if tok.Code == "" {
			continue
		}
		s, err := resolveExpression(tok.Code, seq)
		if err != nil {
			b.WriteString("[template expansion error: (" + err.Error() + ")]")
			continue
		}
		b.WriteString(s)
	}
	return b.String()
}

// resolveExpression evaluates one `path | formatter | ...` pipeline against
// the context stack.
func resolveExpression(code string, seq []any) (string, error) {
	parts := strings.Split(code, "|")
	path := parts[0]
	v := strings.TrimLeft(path, ".")

	// leading dots select how many context frames to ascend, minimum one
	depth := len(path) - len(v)
	if depth < 1 {
		depth = 1
	}
	if depth > len(seq) {
		depth = len(seq)
	}
	val := seq[len(seq)-depth]

	if v != "" {
		if items, ok := toAnySlice(val); ok {
			if idx, isNum := parseIntegral(v); isNum {
				if idx < 0 || idx >= len(items) {
					return "", errors.Errorf("index %d out of range", idx)
				}
				val = items[idx]
			} else {
				val = nil
			}
		} else {
			val = lookupPath(val, v)
		}
	}

	for _, call := range parts[1:] {
		name, args, err := parseFormatterCall(call)
		if err != nil {
			return "", err
		}
		f, ok := lookupFormatter(name)
		if !ok {
			return "", errors.Errorf("can not find formatter %s", name)
		}
		val, err = f(val, args...)
		if err != nil {
			return "", err
		}
	}
	return toString(val), nil
}

// lookupPath traverses a dotted path through nested mappings, indexing into
// sequences where a component is integral. A missing step resolves to nil,
// which renders empty.
func lookupPath(val any, path string) any {
	cur := val
	for _, part := range strings.Split(path, ".") {
		if m, ok := asMap(cur); ok {
			cur = m[part]
			continue
		}
		if items, ok := toAnySlice(cur); ok {
			if idx, isNum := parseIntegral(part); isNum && idx >= 0 && idx < len(items) {
				cur = items[idx]
				continue
			}
		}
		return nil
	}
	return cur
}

func parseIntegral(s string) (int, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// parseFormatterCall splits a formatter call into its name and literal
// arguments. Arguments use a strict grammar: numbers, quoted strings,
// true/false, and name=value keyword forms. Caller text is never evaluated.
func parseFormatterCall(call string) (string, []any, error) {
	call = strings.TrimSpace(call)
	i := strings.IndexByte(call, '(')
	if i < 0 {
		return call, nil, nil
	}
	if !strings.HasSuffix(call, ")") {
		return "", nil, errors.Errorf("expecting %q in %s", ")", call)
	}
	name := strings.TrimSpace(call[:i])
	args, err := parseLiteralArgs(call[i+1 : len(call)-1])
	if err != nil {
		return "", nil, err
	}
	return name, args, nil
}

func parseLiteralArgs(src string) ([]any, error) {
	var args []any
	i := 0
	n := len(src)
	skipSpace := func() {
		for i < n && (src[i] == ' ' || src[i] == '\t') {
			i++
		}
	}
	skipSpace()
	if i >= n {
		return nil, nil
	}
	for {
		skipSpace()
		name := ""
		if j := scanIdentifier(src, i); j > i && j < n && src[j] == '=' && (j+1 >= n || src[j+1] != '=') {
			name = src[i:j]
			i = j + 1
			skipSpace()
		}
		v, next, err := parseLiteral(src, i)
		if err != nil {
			return nil, err
		}
		i = next
		if name != "" {
			args = append(args, kwarg{name: name, value: v})
		} else {
			args = append(args, v)
		}
		skipSpace()
		if i >= n {
			return args, nil
		}
		if src[i] != ',' {
			return nil, errors.Errorf("expecting %q in formatter arguments", ",")
		}
		i++
	}
}

func scanIdentifier(src string, i int) int {
	for i < len(src) {
		c := src[i]
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			i++
			continue
		}
		break
	}
	return i
}

func parseLiteral(src string, i int) (any, int, error) {
	if i >= len(src) {
		return nil, i, errors.New("expecting a literal argument")
	}
	switch c := src[i]; {
	case c == '"' || c == '\'':
		return parseQuoted(src, i)
	case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
		j := i + 1
		for j < len(src) && strings.ContainsRune("0123456789.eE+-", rune(src[j])) {
			j++
		}
		tok := src[i:j]
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, i, errors.Errorf("bad numeric literal %q", tok)
		}
		if !strings.ContainsAny(tok, ".eE") {
			return int(f), j, nil
		}
		return f, j, nil
	default:
		j := scanIdentifier(src, i)
		switch src[i:j] {
		case "true", "True":
			return true, j, nil
		case "false", "False":
			return false, j, nil
		case "none", "None", "null":
			return nil, j, nil
		}
		return nil, i, errors.Errorf("unsupported literal %q in formatter arguments", src[i:j])
	}
}

func parseQuoted(src string, i int) (any, int, error) {
	quote := src[i]
	var b strings.Builder
	j := i + 1
	for j < len(src) {
		c := src[j]
		if c == '\\' && j+1 < len(src) {
			switch src[j+1] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(src[j+1])
			}
			j += 2
			continue
		}
		if c == quote {
			return b.String(), j + 1, nil
		}
		b.WriteByte(c)
		j++
	}
	return nil, i, errors.Errorf("expecting %q to close string literal", string(quote))
}
