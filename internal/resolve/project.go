package resolve

import (
	"reflect"
	"strings"
)

// Project reads the attribute name from source. It is the resolver of every
// field that has none bound. Supported sources:
//   - map[string]V: the value under key name
//   - structs and pointers to structs: the field tagged `graphql:"name"` or
//     `json:"name"`, else the exported field whose name matches
//     case-insensitively
//   - any value with an exported method matching name that takes no
//     arguments and returns one value, or a value and an error
//
// A missing attribute reads as nil.
func Project(source any, name string) any {
	if source == nil {
		return nil
	}
	if m, ok := source.(map[string]any); ok {
		return m[name]
	}

	rv := reflect.ValueOf(source)
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil
	}
	if v, ok := callMethod(rv, name); ok {
		return v
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil
		}
		return v.Interface()
	case reflect.Struct:
		if f, ok := structField(rv, name); ok {
			return f.Interface()
		}
	}
	return nil
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	fallback := -1
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tagName(sf.Tag.Get("graphql")) == name || tagName(sf.Tag.Get("json")) == name {
			return rv.Field(i), true
		}
		if fallback < 0 && strings.EqualFold(sf.Name, name) {
			fallback = i
		}
	}
	if fallback >= 0 {
		return rv.Field(fallback), true
	}
	return reflect.Value{}, false
}

func tagName(tag string) string {
	if i := strings.IndexByte(tag, ','); i >= 0 {
		return tag[:i]
	}
	return tag
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func callMethod(rv reflect.Value, name string) (any, bool) {
	if name == "" {
		return nil, false
	}
	m := rv.MethodByName(strings.ToUpper(name[:1]) + name[1:])
	if !m.IsValid() || m.Type().NumIn() != 0 {
		return nil, false
	}
	switch m.Type().NumOut() {
	case 1:
		return m.Call(nil)[0].Interface(), true
	case 2:
		if m.Type().Out(1) != errorType {
			return nil, false
		}
		out := m.Call(nil)
		if !out[1].IsNil() {
			return nil, true
		}
		return out[0].Interface(), true
	}
	return nil, false
}
