package mologs

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// toString renders a resolved template value as display text. Structured
// values (maps, sequences) render as pretty JSON; nil renders empty.
func toString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return formatDatetime(v)
	case time.Duration:
		return formatSeconds(v.Seconds())
	case error:
		return v.Error()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return fmtFloat(v)
	case float32:
		return fmtFloat(float64(v))
	}
	if n, ok := asInt64(val); ok {
		return strconv.FormatInt(n, 10)
	}
	if isStructured(val) {
		return prettyJSON(val)
	}
	return stringify(val)
}

// stringify is the generic scalar conversion, without the pretty-JSON
// treatment toString gives structured values.
func stringify(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return formatDatetime(v)
	case time.Duration:
		return formatSeconds(v.Seconds())
	case error:
		return v.Error()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return fmtFloat(v)
	case float32:
		return fmtFloat(float64(v))
	}
	if n, ok := asInt64(val); ok {
		return strconv.FormatInt(n, 10)
	}
	return defaultFormat(val)
}

func fmtFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		// integral values render without a decimal point or exponent
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatSeconds(seconds float64) string {
	if seconds == 0 {
		return "0 seconds"
	}
	decimal := 4 - int(math.Ceil(math.Log10(math.Abs(seconds))))
	if decimal < 0 {
		decimal = 0
	}
	return strconv.FormatFloat(roundToDecimal(seconds, decimal), 'f', decimal, 64) + " seconds"
}

func roundToDecimal(f float64, decimal int) float64 {
	p := math.Pow(10, float64(decimal))
	return math.Round(f*p) / p
}

// indentText prefixes every line of s with prefix, preserving any trailing
// whitespace suffix after the last content line.
func indentText(s, prefix string) string {
	content := strings.TrimRight(s, " \t\r\n")
	suffix := s[len(content):]
	lines := strings.Split(content, "\n")
	return prefix + strings.Join(lines, "\n"+prefix) + suffix
}

const snip = "...<snip>..."

// limitString caps s at length runes, chopping out the middle if required.
func limitString(s string, length int) string {
	if length <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	if length < len(snip)*2 {
		return string(r[:length])
	}
	lhs := int(math.Round(float64(length-len(snip)) / 2))
	rhs := length - len(snip) - lhs
	return string(r[:lhs]) + snip + string(r[len(r)-rhs:])
}

// CommonPrefix returns the longest prefix shared by all arguments.
func CommonPrefix(args ...string) string {
	if len(args) == 0 {
		return ""
	}
	prefix := args[0]
	for _, a := range args[1:] {
		n := len(prefix)
		if len(a) < n {
			n = len(a)
		}
		i := 0
		for i < n && a[i] == prefix[i] {
			i++
		}
		prefix = prefix[:i]
	}
	return prefix
}

// Deformat removes non-alphanumeric characters.
func Deformat(value string) string {
	var b strings.Builder
	for _, c := range value {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// IsHex reports whether value is entirely hexadecimal digits.
func IsHex(value string) bool {
	if value == "" {
		return false
	}
	for _, c := range value {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// Wordify splits camelCase, UPPER_SNAKE and punctuated identifiers into
// lowercase words. Unsplittable values come back whole, lowercased.
func Wordify(value string) []string {
	s := []rune(value)
	n := len(s)
	var words []string
	for i := 0; i < n; {
		c := s[i]
		if !isWordRune(c) {
			i++
			continue
		}
		start := i
		switch {
		case unicode.IsUpper(c) && i+1 < n && unicode.IsLower(s[i+1]):
			// Capitalized word
			i++
			for i < n && (unicode.IsLower(s[i]) || unicode.IsDigit(s[i])) {
				i++
			}
		case unicode.IsUpper(c):
			// acronym run; an upper starting a capitalized word ends it
			i++
			for i < n && (unicode.IsUpper(s[i]) || unicode.IsDigit(s[i])) {
				if unicode.IsUpper(s[i]) && i+1 < n && unicode.IsLower(s[i+1]) {
					break
				}
				i++
			}
		case unicode.IsLower(c):
			i++
			for i < n && (unicode.IsLower(s[i]) || unicode.IsDigit(s[i])) {
				i++
			}
		default: // digit
			i++
			for i < n && unicode.IsDigit(s[i]) {
				i++
			}
		}
		words = append(words, strings.ToLower(string(s[start:i])))
	}
	if len(words) <= 1 {
		return []string{strings.ToLower(value)}
	}
	return words
}

func isWordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c)
}

// EditDistance returns the Levenshtein distance between s1 and s2, scaled by
// the length of the longer string (0 = identical, 1 = nothing shared).
func EditDistance(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return 1.0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i, c1 := range a {
		curr[0] = i + 1
		for j, c2 := range b {
			sub := prev[j]
			if c1 != c2 {
				sub++
			}
			curr[j+1] = minInt(prev[j+1]+1, minInt(curr[j]+1, sub))
		}
		prev, curr = curr, prev
	}
	return float64(prev[len(b)]) / float64(len(a))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
