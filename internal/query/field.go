package query

import (
	"reflect"
	"strings"
	"sync"
	"time"
)

// fieldIndex maps a struct type's JSON field names to their index paths.
// Promoted fields of embedded structs are included.
type fieldIndex struct {
	names []string
	paths map[string][]int
}

var indexCache sync.Map // reflect.Type -> *fieldIndex

func indexFor(t reflect.Type) *fieldIndex {
	if cached, ok := indexCache.Load(t); ok {
		return cached.(*fieldIndex)
	}
	idx := &fieldIndex{paths: make(map[string][]int)}
	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := jsonName(f)
		if name == "" {
			continue
		}
		if _, dup := idx.paths[name]; dup {
			continue
		}
		idx.paths[name] = f.Index
		idx.names = append(idx.names, name)
	}
	actual, _ := indexCache.LoadOrStore(t, idx)
	return actual.(*fieldIndex)
}

func jsonName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

func structValue(rec any) (reflect.Value, bool) {
	v := reflect.ValueOf(rec)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}

// FieldValue returns the value of the named field of rec. Nil pointers come
// back as a nil interface; other pointers are dereferenced. Map records are
// read by key. The bool is false when the field does not exist.
func FieldValue(rec any, name string) (any, bool) {
	if m, ok := rec.(map[string]any); ok {
		v, found := m[name]
		return v, found
	}
	v, ok := structValue(rec)
	if !ok {
		return nil, false
	}
	path, ok := indexFor(v.Type()).paths[name]
	if !ok {
		return nil, false
	}
	return unwrap(v.FieldByIndex(path)), true
}

// FieldNames lists the JSON field names of rec in declaration order.
func FieldNames(rec any) []string {
	if m, ok := rec.(map[string]any); ok {
		names := make([]string, 0, len(m))
		for k := range m {
			names = append(names, k)
		}
		return names
	}
	v, ok := structValue(rec)
	if !ok {
		return nil
	}
	return append([]string(nil), indexFor(v.Type()).names...)
}

func unwrap(v reflect.Value) any {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

// compare orders two field values. Numbers compare numerically regardless of
// their Go type, times chronologically, strings (and string-kinded enums)
// lexically. ok is false when the values are not mutually ordered.
func compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return ta.Compare(tb), true
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	sa, okA := toString(a)
	sb, okB := toString(b)
	if !okA || !okB {
		return 0, false
	}
	return strings.Compare(sa, sb), true
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func toString(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// equal compares for exact equality, treating nil as equal only to nil.
// Numbers of different Go types compare by value and string-kinded enums
// compare equal to plain strings of the same text.
func equal(a, b any) bool {
	a, b = unwrapAny(a), unwrapAny(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	return reflect.DeepEqual(a, b)
}

func unwrapAny(v any) any {
	if v == nil {
		return nil
	}
	return unwrap(reflect.ValueOf(v))
}
