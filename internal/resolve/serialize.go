package resolve

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/hanpama/usergraph/internal/schema"
)

// SerializeLeaf converts value to the response form of the named scalar. enum
// is the enum type when typeName names one. Custom scalars pass through.
func SerializeLeaf(typeName string, enum *schema.Type, value any) (any, error) {
	value = deref(value)
	if value == nil {
		return nil, nil
	}
	switch typeName {
	case "String":
		return serializeString(value)
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "Boolean":
		return serializeBoolean(value)
	case "ID":
		return serializeID(value)
	}
	if enum != nil {
		s, err := serializeString(value)
		if err != nil || !enum.HasEnumValue(s.(string)) {
			return nil, fmt.Errorf("Enum %q cannot represent value: %v", enum.Name, value)
		}
		return s, nil
	}
	return value, nil
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

func serializeString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case fmt.Stringer:
		return x.String(), nil
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	if n, ok := toInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	if f, ok := toFloat64(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	}
	return nil, fmt.Errorf("String cannot represent value: %v", v)
}

func serializeInt(v any) (any, error) {
	var n int64
	switch x := v.(type) {
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		parsed, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %q", x)
		}
		n = parsed
	default:
		if i, ok := toInt64(v); ok {
			n = i
		} else if f, ok := toFloat64(v); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			n = int64(f)
		} else {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %v", v)
		}
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", n)
	}
	return int(n), nil
}

func serializeFloat(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1.0, nil
		}
		return 0.0, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil, fmt.Errorf("Float cannot represent non numeric value: %q", x)
		}
		return f, nil
	}
	if f, ok := toFloat64(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f, nil
	}
	if n, ok := toInt64(v); ok {
		return float64(n), nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %v", v)
}

func serializeBoolean(v any) (any, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	if n, ok := toInt64(v); ok {
		return n != 0, nil
	}
	if f, ok := toFloat64(v); ok {
		return f != 0, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %v", v)
}

func serializeID(v any) (any, error) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return rv.String(), nil
	}
	if n, ok := toInt64(v); ok {
		return strconv.FormatInt(n, 10), nil
	}
	if f, ok := toFloat64(v); ok && f == math.Trunc(f) {
		return strconv.FormatInt(int64(f), 10), nil
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return nil, fmt.Errorf("ID cannot represent value: %v", v)
}

func toInt64(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

func toFloat64(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
