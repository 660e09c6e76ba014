package executor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	language "github.com/hanpama/usergraph/internal/language"
	schema "github.com/hanpama/usergraph/internal/schema"
)

// coerceVariableValues coerces variable values according to their types
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	if variableValues == nil {
		variableValues = make(map[string]any)
	}
	coerced := make(map[string]any)
	for _, varDef := range operation.VariableDefinitions {
		name := varDef.Variable
		t := varDef.Type
		val, ok := variableValues[name]
		if !ok {
			if v2, ok2 := variableValues[strings.TrimPrefix(name, "$")]; ok2 {
				val = v2
				ok = true
			}
		}
		if !ok {
			if varDef.DefaultValue != nil {
				val = language.ValueToGo(varDef.DefaultValue)
			} else if t.NonNull {
				return nil, fmt.Errorf("Variable \"$%s\" of required type %q was not provided.", name, t.String())
			} else {
				continue
			}
		}
		if val == nil && t.NonNull {
			return nil, fmt.Errorf("Variable \"$%s\" of non-null type %q must not be null.", name, t.String())
		}
		cv, err := coerceValue(sch, val, schema.TypeRefFromAST(t))
		if err != nil {
			return nil, fmt.Errorf("Variable \"$%s\" got invalid value: %v", name, err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues validates and coerces the arguments of one field
// occurrence. The first violation is returned; the field must then not be
// resolved.
func coerceArgumentValues(
	sch *schema.Schema,
	objectType *schema.Type,
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any, len(fieldDef.Arguments))
	for _, arg := range arguments {
		if fieldDef.Argument(arg.Name) == nil {
			return nil, fmt.Errorf("Unknown argument %q on field \"%s.%s\".", arg.Name, objectType.Name, fieldDef.Name)
		}
	}
	for _, argDef := range fieldDef.Arguments {
		name := argDef.Name
		var (
			val      any
			provided bool
		)
		if arg := arguments.ForName(name); arg != nil {
			val, provided = valueFromASTWithVars(arg.Value, variableValues)
		}
		if !provided {
			if argDef.DefaultValue != nil {
				coerced[name] = argDef.DefaultValue
			} else if schema.IsNonNull(argDef.Type) {
				return nil, fmt.Errorf("Argument %q of required type %q was not provided.", name, argDef.Type.String())
			}
			continue
		}
		cv, err := coerceValue(sch, val, argDef.Type)
		if err != nil {
			return nil, fmt.Errorf("Argument %q has invalid value %s: %v", name, describeValue(val), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// valueFromASTWithVars converts an AST value to a runtime value with variable
// substitution. It reports false when value is a variable that was not supplied.
func valueFromASTWithVars(value *language.Value, variableValues map[string]any) (any, bool) {
	if value == nil {
		return nil, false
	}
	switch value.Kind {
	case language.Variable:
		name := value.Raw
		if v, ok := variableValues[name]; ok {
			return v, true
		}
		if v, ok := variableValues[strings.TrimPrefix(name, "$")]; ok {
			return v, true
		}
		return nil, false
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i], _ = valueFromASTWithVars(c.Value, variableValues)
		}
		return out, true
	case language.ObjectValue:
		m := make(map[string]any, len(value.Children))
		for _, f := range value.Children {
			if v, ok := valueFromASTWithVars(f.Value, variableValues); ok {
				m[f.Name] = v
			}
		}
		return m, true
	default:
		return language.ValueToGo(value), true
	}
}

// coerceValue coerces a value to the given GraphQL input type
func coerceValue(sch *schema.Schema, value any, targetType *schema.TypeRef) (any, error) {
	if schema.IsNonNull(targetType) {
		if value == nil {
			return nil, fmt.Errorf("expected non-null value of type %s", targetType.String())
		}
		return coerceValue(sch, value, schema.Unwrap(targetType))
	}

	if value == nil {
		return nil, nil
	}

	if schema.IsList(targetType) {
		return coerceListValue(sch, value, targetType)
	}

	namedType := schema.GetNamedType(targetType)
	switch namedType {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}

	typ := sch.Types[namedType]
	if typ == nil {
		return nil, fmt.Errorf("unknown type %s", namedType)
	}
	switch typ.Kind {
	case schema.TypeKindEnum:
		s, ok := value.(string)
		if !ok || !typ.HasEnumValue(s) {
			return nil, fmt.Errorf("value %s does not exist in %q enum", describeValue(value), namedType)
		}
		return s, nil
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, typ, value)
	case schema.TypeKindScalar:
		return value, nil
	default:
		return nil, fmt.Errorf("%s is not an input type", namedType)
	}
}

func coerceInputObject(sch *schema.Schema, typ *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected type %q to be an object", typ.Name)
	}
	for name := range fields {
		if typ.InputField(name) == nil {
			return nil, fmt.Errorf("field %q is not defined by type %q", name, typ.Name)
		}
	}
	out := make(map[string]any, len(typ.InputFields))
	for _, f := range typ.InputFields {
		v, ok := fields[f.Name]
		if !ok {
			if f.DefaultValue != nil {
				out[f.Name] = f.DefaultValue
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("field \"%s.%s\" of required type %q was not provided", typ.Name, f.Name, f.Type.String())
			}
			continue
		}
		cv, err := coerceValue(sch, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field \"%s.%s\": %v", typ.Name, f.Name, err)
		}
		out[f.Name] = cv
	}
	return out, nil
}

// coerceListValue coerces a value to a list
func coerceListValue(sch *schema.Schema, value any, listType *schema.TypeRef) (any, error) {
	innerType := schema.Unwrap(listType)
	if slice, ok := value.([]any); ok {
		coercedSlice := make([]any, len(slice))
		for i, item := range slice {
			coercedItem, err := coerceValue(sch, item, innerType)
			if err != nil {
				return nil, fmt.Errorf("at index %d: %v", i, err)
			}
			coercedSlice[i] = coercedItem
		}
		return coercedSlice, nil
	}

	// Single value becomes a list of one
	coercedItem, err := coerceValue(sch, value, innerType)
	if err != nil {
		return nil, err
	}
	return []any{coercedItem}, nil
}

func coerceToInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %s", describeValue(value))
		}
		n = int64(v)
	case float32:
		if float64(v) != math.Trunc(float64(v)) {
			return nil, fmt.Errorf("Int cannot represent non-integer value: %s", describeValue(value))
		}
		n = int64(v)
	default:
		return nil, fmt.Errorf("Int cannot represent non-integer value: %s", describeValue(value))
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value: %d", n)
	}
	return int(n), nil
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("Float cannot represent non numeric value: %s", describeValue(value))
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("String cannot represent a non string value: %s", describeValue(value))
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("Boolean cannot represent a non boolean value: %s", describeValue(value))
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("ID cannot represent value: %s", describeValue(value))
}

func describeValue(v any) string {
	if s, ok := v.(string); ok {
		return strconv.Quote(s)
	}
	return fmt.Sprintf("%v", v)
}
