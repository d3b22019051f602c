package vtable

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Row is one record of the backing collection. ID is unique and stable; it
// has no relation to the row's position.
type Row struct {
	ID     int
	Fields map[string]any
}

// Lookup resolves a dotted path against the row. "id" resolves to ID unless
// Fields carries its own "id".
func (r Row) Lookup(path string) (any, bool) {
	return Resolve(r, path)
}

// Text renders the value at path for display. Absent values render empty.
func (r Row) Text(path string) string {
	v, ok := r.Lookup(path)
	if !ok {
		return ""
	}
	return FormatValue(v)
}

// Resolve walks v one dotted segment at a time. It descends through maps
// keyed by string, Rows, structs (exported fields, case-insensitive) and
// slices (numeric segments). A missing segment or a scalar in the middle of
// the path yields (nil, false); Resolve never panics.
func Resolve(v any, path string) (any, bool) {
	if path == "" {
		return v, v != nil
	}
	cur := v
	for seg := range strings.SplitSeq(path, ".") {
		next, ok := step(cur, seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func step(cur any, seg string) (any, bool) {
	switch c := cur.(type) {
	case nil:
		return nil, false
	case map[string]any:
		v, ok := c[seg]
		return v, ok
	case map[string]string:
		v, ok := c[seg]
		return v, ok
	case Row:
		return rowField(c, seg)
	case *Row:
		if c == nil {
			return nil, false
		}
		return rowField(*c, seg)
	case []any:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= len(c) {
			return nil, false
		}
		return c[i], true
	}
	return reflectStep(reflect.ValueOf(cur), seg)
}

func rowField(r Row, seg string) (any, bool) {
	if v, ok := r.Fields[seg]; ok {
		return v, true
	}
	if seg == "id" {
		return r.ID, true
	}
	return nil, false
}

// reflectStep handles typed containers: structs, string-keyed maps and
// slices of any element type, through any number of pointers.
func reflectStep(rv reflect.Value, seg string) (any, bool) {
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		sf, ok := rv.Type().FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, seg) })
		if !ok {
			return nil, false
		}
		// promoted through a nil embedded pointer
		f, err := rv.FieldByIndexErr(sf.Index)
		if err != nil || !f.CanInterface() {
			return nil, false
		}
		return f.Interface(), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return v.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	}
	return nil, false
}

// FormatValue converts a resolved value to display text. Integral floats
// (as produced by JSON decoding) print without a fractional part.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return ""
		}
		return x.String()
	}
	return fmt.Sprint(v)
}
