package mologs

import (
	"encoding/hex"
	"encoding/json"
	"html"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Formatter is a named, registered pure function transforming a resolved
// template value into display text. The expander applies them left to right
// and stringifies the final result; a returned error renders as an inline
// expansion-error marker, never as a panic in the caller.
//
// args carries the literal arguments from the template, positionally, with
// name=value arguments as kwarg values.
type Formatter func(value any, args ...any) (any, error)

var (
	formattersMu sync.RWMutex
	formatters   = map[string]Formatter{}
)

// RegisterFormatter adds (or replaces) a named formatter. Collaborators
// extend the standard set at process start.
func RegisterFormatter(name string, f Formatter) {
	formattersMu.Lock()
	defer formattersMu.Unlock()
	formatters[name] = f
}

func lookupFormatter(name string) (Formatter, bool) {
	formattersMu.RLock()
	defer formattersMu.RUnlock()
	f, ok := formatters[name]
	return f, ok
}

// RegisteredFormatters returns the names of all registered formatters.
func RegisteredFormatters() []string {
	formattersMu.RLock()
	defer formattersMu.RUnlock()
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterFormatter("str", fmtStr)
	RegisterFormatter("unicode", fmtStr)
	RegisterFormatter("datetime", fmtDatetime)
	RegisterFormatter("unix", fmtUnix)
	RegisterFormatter("url", fmtURL)
	RegisterFormatter("html", fmtHTML)
	RegisterFormatter("upper", fmtUpper)
	RegisterFormatter("lower", fmtLower)
	RegisterFormatter("capitalize", fmtCapitalize)
	RegisterFormatter("strip", fmtStrip)
	RegisterFormatter("trim", fmtStrip)
	RegisterFormatter("newline", fmtNewline)
	RegisterFormatter("replace", fmtReplace)
	RegisterFormatter("json", fmtJSON)
	RegisterFormatter("tab", fmtTab)
	RegisterFormatter("indent", fmtIndent)
	RegisterFormatter("outdent", fmtOutdent)
	RegisterFormatter("round", fmtRound)
	RegisterFormatter("percent", fmtPercent)
	RegisterFormatter("find", fmtFind)
	RegisterFormatter("between", fmtBetween)
	RegisterFormatter("right", fmtRight)
	RegisterFormatter("left", fmtLeft)
	RegisterFormatter("right_align", fmtRightAlign)
	RegisterFormatter("left_align", fmtLeftAlign)
	RegisterFormatter("comma", fmtComma)
	RegisterFormatter("quote", fmtQuote)
	RegisterFormatter("hex", fmtHex)
	RegisterFormatter("limit", fmtLimit)
	RegisterFormatter("split", fmtSplit)
}

// kwarg is a name=value formatter argument.
type kwarg struct {
	name  string
	value any
}

// argValue finds the argument at the given position, or the named argument,
// whichever was supplied. Named arguments win.
func argValue(args []any, pos int, name string) (any, bool) {
	for _, a := range args {
		if k, ok := a.(kwarg); ok && k.name == name {
			return k.value, true
		}
	}
	p := 0
	for _, a := range args {
		if _, ok := a.(kwarg); ok {
			continue
		}
		if p == pos {
			return a, true
		}
		p++
	}
	return nil, false
}

func argString(args []any, pos int, name string) (string, bool) {
	v, ok := argValue(args, pos, name)
	if !ok {
		return "", false
	}
	return stringify(v), true
}

func argStringDef(args []any, pos int, name, def string) string {
	if s, ok := argString(args, pos, name); ok {
		return s
	}
	return def
}

func argInt(args []any, pos int, name string) (int, bool) {
	v, ok := argValue(args, pos, name)
	if !ok {
		return 0, false
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, false
	}
	return int(f), true
}

func argIntDef(args []any, pos int, name string, def int) int {
	if n, ok := argInt(args, pos, name); ok {
		return n
	}
	return def
}

func argBoolDef(args []any, pos int, name string, def bool) bool {
	v, ok := argValue(args, pos, name)
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func toFloat(val any) (float64, error) {
	switch v := val.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, errors.Errorf("can not convert %q to number", v)
		}
		return f, nil
	case time.Duration:
		return v.Seconds(), nil
	case bool, nil:
		return 0, errors.Errorf("can not convert %v to number", val)
	}
	if n, ok := asInt64(val); ok {
		return float64(n), nil
	}
	return 0, errors.Errorf("can not convert %T to number", val)
}

// asTime interprets a value as a point in time. Numeric values are unix
// epoch seconds; magnitudes past 9999999999 are taken as milliseconds.
func asTime(val any) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, errors.Errorf("can not interpret %q as a date", v)
	}
	f, err := toFloat(val)
	if err != nil {
		return time.Time{}, errors.Errorf("can not interpret %T as a date", val)
	}
	if math.Abs(f) > 9999999999 {
		f /= 1000
	}
	sec := int64(f)
	nsec := int64(math.Round((f - float64(sec)) * 1e9))
	return time.Unix(sec, nsec).UTC(), nil
}

func formatDatetime(t time.Time) string {
	out := t.UTC().Format("2006-01-02 15:04:05.000000")
	if strings.HasSuffix(out, ".000000") {
		return out[:len(out)-7]
	}
	if strings.HasSuffix(out, "000") {
		return out[:len(out)-3]
	}
	return out
}

func fmtStr(value any, _ ...any) (any, error) {
	if value == nil {
		return "", nil
	}
	return stringify(value), nil
}

// fmtDatetime converts a unix timestamp to a GMT string, trimming empty
// fractional-second suffixes.
func fmtDatetime(value any, _ ...any) (any, error) {
	t, err := asTime(value)
	if err != nil {
		return nil, err
	}
	return formatDatetime(t), nil
}

// fmtUnix converts a date-like value to unix seconds; values it can not
// interpret pass through unchanged.
func fmtUnix(value any, _ ...any) (any, error) {
	t, err := asTime(value)
	if err != nil {
		return stringify(value), nil
	}
	return strconv.FormatInt(t.Unix(), 10), nil
}

// fmtURL converts a mapping or scalar to URL query-parameter form.
func fmtURL(value any, _ ...any) (any, error) {
	return value2url(value), nil
}

func value2url(value any) string {
	if value == nil {
		return ""
	}
	if m, ok := asMap(value); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			if m[k] != nil {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, url.QueryEscape(k)+"="+urlValue(m[k]))
		}
		return strings.Join(parts, "&")
	}
	return urlValue(value)
}

func urlValue(value any) string {
	if items, ok := toAnySlice(value); ok {
		parts := make([]string, 0, len(items))
		for _, v := range items {
			if v != nil {
				parts = append(parts, url.QueryEscape(stringify(v)))
			}
		}
		return strings.Join(parts, ",")
	}
	return url.QueryEscape(stringify(value))
}

func fmtHTML(value any, _ ...any) (any, error) {
	return html.EscapeString(stringify(value)), nil
}

func fmtUpper(value any, _ ...any) (any, error) {
	return strings.ToUpper(stringify(value)), nil
}

func fmtLower(value any, _ ...any) (any, error) {
	return strings.ToLower(stringify(value)), nil
}

func fmtCapitalize(value any, _ ...any) (any, error) {
	s := stringify(value)
	if s == "" {
		return "", nil
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + strings.ToLower(string(r[1:])), nil
}

func fmtStrip(value any, _ ...any) (any, error) {
	return strings.TrimSpace(stringify(value)), nil
}

// fmtNewline prepends a newline, if something.
func fmtNewline(value any, _ ...any) (any, error) {
	return "\n" + strings.TrimLeft(toString(value), "\n"), nil
}

func fmtReplace(value any, args ...any) (any, error) {
	find, ok := argString(args, 0, "find")
	if !ok {
		return nil, errors.New("replace requires a find argument")
	}
	repl, ok := argString(args, 1, "replace")
	if !ok {
		return nil, errors.New("replace requires a replace argument")
	}
	return strings.ReplaceAll(stringify(value), find, repl), nil
}

func fmtJSON(value any, args ...any) (any, error) {
	if argBoolDef(args, 0, "pretty", true) {
		return prettyJSON(value), nil
	}
	return value2json(value), nil
}

// fmtTab renders a mapping as tab-delimited values with a header line.
func fmtTab(value any, _ ...any) (any, error) {
	m, ok := asMap(value)
	if !ok {
		return stringify(value), nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	header := make([]string, len(keys))
	row := make([]string, len(keys))
	for i, k := range keys {
		header[i] = value2json(k)
		row[i] = value2json(m[k])
	}
	return strings.Join(header, "\t") + "\n" + strings.Join(row, "\t"), nil
}

func fmtIndent(value any, args ...any) (any, error) {
	prefix := argStringDef(args, 0, "prefix", "\t")
	if n, ok := argInt(args, 1, "indent"); ok {
		prefix = strings.Repeat(prefix, n)
	}
	return indentText(toString(value), prefix), nil
}

// fmtOutdent removes the common leading-whitespace column from all lines.
func fmtOutdent(value any, _ ...any) (any, error) {
	lines := strings.Split(toString(value), "\n")
	num := 100
	for _, l := range lines {
		trimmed := strings.TrimLeft(l, " \t")
		if len(trimmed) > 0 && len(l)-len(trimmed) < num {
			num = len(l) - len(trimmed)
		}
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) > num {
			out[i] = l[num:]
		}
	}
	return strings.Join(out, "\n"), nil
}

// fmtRound rounds to `decimal` places; `digits`/`places` round to a count of
// significant digits instead.
func fmtRound(value any, args ...any) (any, error) {
	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	if f == 0 {
		return "0", nil
	}
	decimal := argIntDef(args, 0, "decimal", 0)
	digits, ok := argInt(args, 1, "digits")
	if !ok {
		digits, ok = argInt(args, 2, "places")
	}
	if ok {
		decimal = digits - int(math.Ceil(math.Log10(math.Abs(f))))
	}
	right := decimal
	if right < 0 {
		right = 0
	}
	return strconv.FormatFloat(roundToDecimal(f, decimal), 'f', right, 64), nil
}

// fmtPercent displays a ratio as a percentage (1 = 100%), with the same
// significant-digit logic as round shifted by the two percentage digits.
func fmtPercent(value any, args ...any) (any, error) {
	if value == nil {
		return "", nil
	}
	f, err := toFloat(value)
	if err != nil {
		return nil, err
	}
	if f == 0 {
		return "0%", nil
	}
	decimal, haveDecimal := argInt(args, 0, "decimal")
	digits, ok := argInt(args, 1, "digits")
	if !ok {
		digits, ok = argInt(args, 2, "places")
	}
	if ok {
		decimal = digits - (int(math.Ceil(math.Log10(math.Abs(f)))) + 2)
		haveDecimal = true
	}
	if !haveDecimal {
		decimal = 0
	}
	right := decimal
	if right < 0 {
		right = 0
	}
	rounded := roundToDecimal(f, decimal+2)
	return strconv.FormatFloat(rounded*100, 'f', right, 64) + "%", nil
}

// fmtFind returns the index of a substring (or the first of several), or the
// string length when absent.
func fmtFind(value any, args ...any) (any, error) {
	v := toString(value)
	start := argIntDef(args, 1, "start", 0)
	if start < 0 || start > len(v) {
		start = 0
	}
	target, ok := argValue(args, 0, "find")
	if !ok {
		return nil, errors.New("find requires a find argument")
	}
	if finds, ok := toAnySlice(target); ok {
		m := len(v)
		for _, f := range finds {
			if i := strings.Index(v[start:], stringify(f)); i >= 0 && start+i < m {
				m = start + i
			}
		}
		return m, nil
	}
	if i := strings.Index(v[start:], stringify(target)); i >= 0 {
		return start + i, nil
	}
	return len(v), nil
}

// fmtBetween returns the first substring between prefix and suffix, nil when
// either required delimiter is missing.
func fmtBetween(value any, args ...any) (any, error) {
	v := toString(value)
	prefix, havePrefix := argString(args, 0, "prefix")
	suffix, haveSuffix := argString(args, 1, "suffix")
	start := argIntDef(args, 2, "start", 0)
	if start < 0 || start > len(v) {
		start = 0
	}

	if !havePrefix {
		e := strings.Index(v[start:], suffix)
		if e < 0 {
			return nil, nil
		}
		return v[:start+e], nil
	}

	s := strings.Index(v[start:], prefix)
	if s < 0 {
		return nil, nil
	}
	s += start + len(prefix)

	e := len(v)
	if haveSuffix {
		i := strings.Index(v[s:], suffix)
		if i < 0 {
			return nil, nil
		}
		e = s + i
	}

	// there may be a right-more prefix before the suffix
	if i := strings.LastIndex(v[start:e], prefix); i >= 0 {
		s = start + i + len(prefix)
	}
	return v[s:e], nil
}

func fmtRight(value any, args ...any) (any, error) {
	length := argIntDef(args, 0, "length", 0)
	if length <= 0 {
		return "", nil
	}
	r := []rune(stringify(value))
	if len(r) <= length {
		return string(r), nil
	}
	return string(r[len(r)-length:]), nil
}

func fmtLeft(value any, args ...any) (any, error) {
	length := argIntDef(args, 0, "length", 0)
	if length <= 0 {
		return "", nil
	}
	r := []rune(stringify(value))
	if len(r) <= length {
		return string(r), nil
	}
	return string(r[:length]), nil
}

func fmtRightAlign(value any, args ...any) (any, error) {
	length := argIntDef(args, 0, "length", 0)
	if length <= 0 {
		return "", nil
	}
	r := []rune(stringify(value))
	if len(r) < length {
		return strings.Repeat(" ", length-len(r)) + string(r), nil
	}
	return string(r[len(r)-length:]), nil
}

func fmtLeftAlign(value any, args ...any) (any, error) {
	length := argIntDef(args, 0, "length", 0)
	if length <= 0 {
		return "", nil
	}
	r := []rune(stringify(value))
	if len(r) < length {
		return string(r) + strings.Repeat(" ", length-len(r)), nil
	}
	return string(r[:length]), nil
}

// fmtComma formats numbers with thousands separators; non-numeric input
// passes through as its plain string form.
func fmtComma(value any, _ ...any) (any, error) {
	if value == nil || value == "" {
		return "", nil
	}
	f, err := toFloat(value)
	if err != nil {
		return stringify(value), nil
	}
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	return sign + commafy(intPart) + frac, nil
}

func commafy(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// fmtQuote returns the JSON-quoted string form; nil quotes to empty.
func fmtQuote(value any, _ ...any) (any, error) {
	if value == nil {
		return "", nil
	}
	out, err := json.Marshal(stringify(value))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(out), nil
}

// fmtHex renders integers as uppercase hex, bytes as hex pairs, and anything
// else as the hex of its UTF-8 string form.
func fmtHex(value any, _ ...any) (any, error) {
	if n, ok := asInt64(value); ok {
		return strings.ToUpper(strconv.FormatInt(n, 16)), nil
	}
	if b, ok := value.([]byte); ok {
		return strings.ToUpper(hex.EncodeToString(b)), nil
	}
	return strings.ToUpper(hex.EncodeToString([]byte(stringify(value)))), nil
}

// fmtLimit caps the string form at the given length, chopping out the middle
// when there is room for the snip marker.
func fmtLimit(value any, args ...any) (any, error) {
	if value == nil {
		return nil, nil
	}
	length, ok := argInt(args, 0, "length")
	if !ok {
		return nil, errors.New("limit requires a length argument")
	}
	return limitString(toString(value), length), nil
}

func fmtSplit(value any, args ...any) (any, error) {
	sep := argStringDef(args, 0, "sep", "\n")
	return strings.Split(toString(value), sep), nil
}
