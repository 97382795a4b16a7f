package democrat

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// as asserts v to T, mapping nil to the zero value.
func as[T any](v any) T {
	if v == nil {
		var zero T
		return zero
	}
	return v.(T)
}

// coerce converts a value that may have lost its Go type (snapshots and
// patches that went through a codec) back into T. It tries, in order: a type
// assertion, a lossless numeric or string conversion, and a JSON round trip.
func coerce[T any](v any) (T, error) {
	var zero T
	target := reflect.TypeFor[T]()
	if v == nil {
		switch target.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return zero, nil
		}
		return zero, fmt.Errorf("cannot use nil as %s", target)
	}
	if t, ok := v.(T); ok {
		return t, nil
	}

	rv := reflect.ValueOf(v)
	if converted, ok := convertScalar(rv, target); ok {
		return converted.Interface().(T), nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("cannot convert %T to %s: %w", v, target, err)
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return zero, fmt.Errorf("cannot convert %T to %s: %w", v, target, err)
	}
	return out, nil
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// convertScalar converts between numeric kinds when no precision is lost, and
// between string or bool kinds of different named types.
func convertScalar(v reflect.Value, target reflect.Type) (reflect.Value, bool) {
	from, to := v.Kind(), target.Kind()
	switch {
	case isNumber(from) && isNumber(to):
		out := v.Convert(target)
		if !out.Convert(v.Type()).Equal(v) {
			return reflect.Value{}, false
		}
		return out, true
	case from == reflect.String && to == reflect.String,
		from == reflect.Bool && to == reflect.Bool:
		return v.Convert(target), true
	}
	return reflect.Value{}, false
}

// convertValue adapts a resolved children value to the type a caller asked
// for. Containers resolve to []any, map[string]any and *Map; typed slices and
// maps are built element by element.
func convertValue[T any](v any) T {
	if t, ok := v.(T); ok {
		return t
	}
	if v == nil {
		var zero T
		return zero
	}
	target := reflect.TypeFor[T]()
	src := reflect.ValueOf(v)
	switch {
	case target.Kind() == reflect.Slice && src.Kind() == reflect.Slice:
		out := reflect.MakeSlice(target, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			out.Index(i).Set(assignable(src.Index(i), target.Elem()))
		}
		return out.Interface().(T)
	case target.Kind() == reflect.Map && target.Key().Kind() == reflect.String && src.Kind() == reflect.Map:
		out := reflect.MakeMapWithSize(target, src.Len())
		iter := src.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key().Convert(target.Key()), assignable(iter.Value(), target.Elem()))
		}
		return out.Interface().(T)
	}
	panic(newFatal("DEM008", ErrInvalidChildren, "UseChildren",
		"children resolved to %T, which is not assignable to %s", v, target))
}

func assignable(v reflect.Value, to reflect.Type) reflect.Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(to)
		}
		v = v.Elem()
	}
	if v.Type().AssignableTo(to) {
		return v
	}
	panic(newFatal("DEM008", ErrInvalidChildren, "UseChildren",
		"child value %s is not assignable to %s", v.Type(), to))
}
