package mologs

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Minimal JSON encoding for template output. Flat scalar sequences render
// inline ("[10, 11, 14, 80]"); nested structures get one value per line with
// four-space indents. Map keys are emitted sorted so output is stable.

const jsonIndent = "    "

func value2json(val any) string {
	var b strings.Builder
	writeJSON(&b, val, "", false)
	return b.String()
}

func prettyJSON(val any) string {
	var b strings.Builder
	writeJSON(&b, val, "", true)
	return b.String()
}

func writeJSON(b *strings.Builder, val any, indent string, pretty bool) {
	if m, ok := asMap(val); ok {
		writeJSONMap(b, m, indent, pretty)
		return
	}
	if items, ok := toAnySlice(val); ok {
		writeJSONSlice(b, items, indent, pretty)
		return
	}
	b.WriteString(scalarJSON(val))
}

func writeJSONSlice(b *strings.Builder, items []any, indent string, pretty bool) {
	if len(items) == 0 {
		b.WriteString("[]")
		return
	}
	if !pretty || flatValues(items) {
		sep := ","
		if pretty {
			sep = ", "
		}
		b.WriteString("[")
		for i, v := range items {
			if i > 0 {
				b.WriteString(sep)
			}
			writeJSON(b, v, indent, false)
		}
		b.WriteString("]")
		return
	}
	inner := indent + jsonIndent
	b.WriteString("[\n")
	for i, v := range items {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString(inner)
		writeJSON(b, v, inner, true)
	}
	b.WriteString("\n" + indent + "]")
}

func writeJSONMap(b *strings.Builder, m map[string]any, indent string, pretty bool) {
	if len(m) == 0 {
		b.WriteString("{}")
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flat := true
	for _, k := range keys {
		if isStructured(m[k]) {
			flat = false
			break
		}
	}
	if !pretty || flat {
		kv, sep := ":", ","
		if pretty {
			kv, sep = ": ", ", "
		}
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(sep)
			}
			b.WriteString(scalarJSON(k) + kv)
			writeJSON(b, m[k], indent, false)
		}
		b.WriteString("}")
		return
	}
	inner := indent + jsonIndent
	b.WriteString("{\n")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString(inner + scalarJSON(k) + ": ")
		writeJSON(b, m[k], inner, true)
	}
	b.WriteString("\n" + indent + "}")
}

func flatValues(items []any) bool {
	for _, v := range items {
		if isStructured(v) {
			return false
		}
	}
	return true
}

func scalarJSON(val any) string {
	switch val.(type) {
	case nil:
		return "null"
	case string, bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		out, err := json.Marshal(val)
		if err == nil {
			return string(out)
		}
	}
	out, err := json.Marshal(stringify(val))
	if err != nil {
		return `"` + stringify(val) + `"`
	}
	return string(out)
}

// asMap normalizes any map with string-convertible keys to map[string]any.
func asMap(val any) (map[string]any, bool) {
	switch m := val.(type) {
	case Params:
		return m, true
	case map[string]any:
		return m, true
	}
	rv := reflect.ValueOf(val)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// toAnySlice normalizes any slice or array (except []byte) to []any.
func toAnySlice(val any) ([]any, bool) {
	switch s := val.(type) {
	case []any:
		return s, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(val)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func isStructured(val any) bool {
	if _, ok := asMap(val); ok {
		return true
	}
	_, ok := toAnySlice(val)
	return ok
}

func asInt64(val any) (int64, bool) {
	switch n := val.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

// defaultFormat is the last-resort conversion for values with no better
// rendering.
func defaultFormat(val any) string {
	return fmt.Sprint(val)
}
