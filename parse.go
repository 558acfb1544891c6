package mologs

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Token is one segment of a parsed template: literal text followed by an
// optional expression. An empty Code marks a pure literal segment.
//
// Concatenating every Text, with each non-empty Code replaced by its resolved
// value, reproduces the rendered template.
type Token struct {
	Text string
	Code string
}

// codeOpeners are the characters that can begin an expression or quoted
// literal at the top level of a template. Round and square brackets only
// nest inside an already-open body.
const codeOpeners = `{"'`

// bodyStoppers end a run of plain bracket-body text.
const bodyStoppers = `][)(}{"'`

// jsonSignature recognizes a quote followed by a colon, the shape of a JSON
// object key. Single-brace text matching it is literal JSON, not an
// expression.
var jsonSignature = regexp.MustCompile(`["']\s*:`)

func closerFor(opener byte) byte {
	switch opener {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	default: // quotes close themselves
		return opener
	}
}

func openerFor(closer byte) (byte, bool) {
	switch closer {
	case ')':
		return '(', true
	case '}':
		return '{', true
	case ']':
		return '[', true
	case '"', '\'':
		return closer, true
	}
	return 0, false
}

func isOpener(c byte) bool {
	return c == '(' || c == '[' || c == '{' || c == '"' || c == '\''
}

// ParseTemplate tokenizes a template into (text, code) pairs.
//
//	ParseTemplate("a {b} c {d} e") == [{"a ", "b"}, {" c ", "d"}, {" e", ""}]
//
// Both {name} and {{name}} delimit expressions; the doubled form exists to
// disambiguate from literal JSON-looking text, whose single braces are kept
// verbatim. A matched "" or '' collapses to one literal quote character.
// Unbalanced delimiters are an error naming the expected closer.
func ParseTemplate(template string) ([]Token, error) {
	var result []Token

	// coalesce adjacent literal segments so the token list stays minimal
	appendToken := func(text, code string) {
		if n := len(result); n > 0 && (code == "" || text == "") {
			if last := &result[n-1]; last.Code == "" {
				last.Text += text
				last.Code = code
				return
			}
		}
		result = append(result, Token{Text: text, Code: code})
	}

	for {
		i := strings.IndexAny(template, codeOpeners)
		if i < 0 {
			if template != "" {
				appendToken(template, "")
			}
			return result, nil
		}
		prefix, residue := template[:i], template[i:]
		code, rest, err := parseCode(residue)
		if err != nil {
			return nil, err
		}
		template = rest

		switch {
		case code == `""`:
			appendToken(prefix+`"`, "")
		case code == "''":
			appendToken(prefix+"'", "")
		case strings.HasPrefix(code, "{{") && strings.HasSuffix(code, "}}") && len(code) >= 4:
			appendToken(prefix, code[2:len(code)-2])
		case strings.HasPrefix(code, "{") && strings.HasSuffix(code, "}") && !jsonSignature.MatchString(code):
			appendToken(prefix, code[1:len(code)-1])
		default:
			// a quoted string, or JSON-looking braces: literal text
			appendToken(prefix+code, "")
		}
	}
}

// parseCode consumes one balanced delimiter pair from the front of code,
// returning the consumed text (delimiters included) and the remainder.
// The first byte of code must be an opener.
func parseCode(code string) (string, string, error) {
	first := code[0]
	residue := code[1:]

	var b strings.Builder
	b.WriteByte(first)

	for {
		var end int
		if first == '"' || first == '\'' {
			end = quotedBodyEnd(residue, first)
		} else {
			if end = strings.IndexAny(residue, bodyStoppers); end < 0 {
				end = len(residue)
			}
		}
		b.WriteString(residue[:end])
		residue = residue[end:]
		if residue == "" {
			return "", "", errors.Errorf("expecting %q before end of template", string(closerFor(first)))
		}

		next := residue[0]
		if opener, ok := openerFor(next); ok && opener == first {
			b.WriteByte(next)
			return b.String(), residue[1:], nil
		}
		if isOpener(next) {
			more, rest, err := parseCode(residue)
			if err != nil {
				return "", "", err
			}
			b.WriteString(more)
			residue = rest
			continue
		}
		// a closer that does not match the open delimiter
		return "", "", errors.Errorf("expecting %q", string(closerFor(first)))
	}
}

// quotedBodyEnd returns the offset of the first unescaped closing quote, or
// len(s) if there is none. Quote bodies do not nest; a backslash escapes the
// quote character only.
func quotedBodyEnd(s string, quote byte) int {
	for i := 0; i < len(s); {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == quote {
			i += 2
			continue
		}
		if s[i] == quote {
			return i
		}
		i++
	}
	return len(s)
}
