package fpdb

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Value is an argument after boundary conversion. The set of implementations
// is closed: Null, Bool, Int, Float, Str, List, Map and the marker returned by
// Skip.
type Value interface {
	isValue()
}

// Null is the SQL NULL value.
type Null struct{}

// Bool is a boolean argument. Only ?d and ?f accept it.
type Bool bool

// Int is an integer argument.
type Int int64

// Float is a floating point argument.
type Float float64

// Str is a string argument; it is always escaped before substitution.
type Str string

// List is a positionally ordered collection.
type List []Value

// Map is a key/value collection. Order is preserved as given.
type Map []Pair

// Pair is a single Map entry.
type Pair struct {
	Key   string
	Value Value
}

// skip marks an argument whose enclosing conditional block must be dropped.
type skip struct{}

func (Null) isValue()  {}
func (Bool) isValue()  {}
func (Int) isValue()   {}
func (Float) isValue() {}
func (Str) isValue()   {}
func (List) isValue()  {}
func (Map) isValue()   {}
func (skip) isValue()  {}

// Skip returns the marker that, passed as an argument, removes the whole
// {...} block holding its placeholder from the built query.
func Skip() Value {
	return skip{}
}

// isSkip reports whether v is the Skip marker.
func isSkip(v Value) bool {
	_, ok := v.(skip)
	return ok
}

var (
	valuerIface = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

// timeLayout is the literal form used for time.Time arguments.
const timeLayout = "2006-01-02 15:04:05"

// ValueOf converts a plain Go value into a Value. Supported forms:
//   - nil and nil pointers (NULL)
//   - Value implementations (returned as-is)
//   - bool, signed and unsigned integers, floats
//   - string and []byte
//   - time.Time (formatted as "2006-01-02 15:04:05")
//   - driver.Valuer (its Value() is converted again)
//   - slices and arrays (List)
//   - maps with string or integer keys (Map, keys sorted ascending; integer
//     keys numerically and rendered in decimal)
//
// Pointers and interfaces are followed. Anything else is ErrConversion.
func ValueOf(in any) (Value, error) {
	switch v := in.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(v), nil
	case int64:
		return Int(v), nil
	case float64:
		return Float(v), nil
	case string:
		return Str(v), nil
	case []byte:
		return Str(v), nil
	case time.Time:
		return Str(v.Format(timeLayout)), nil
	case []any:
		return listOf(reflect.ValueOf(v))
	case map[string]any:
		return mapOf(reflect.ValueOf(v))
	}
	return valueOfReflect(reflect.ValueOf(in))
}

// valueOfReflect is the generic path of ValueOf for named and composite types.
func valueOfReflect(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null{}, nil
	}
	if rv.Type().Implements(valuerIface) {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null{}, nil
		}
		dv, err := rv.Interface().(driver.Valuer).Value()
		if err != nil {
			return nil, fmt.Errorf("%w: %T.Value(): %v", ErrConversion, rv.Interface(), err)
		}
		return ValueOf(dv)
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return ValueOf(rv.Elem().Interface())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return nil, fmt.Errorf("%w: unsigned value %d overflows int64", ErrConversion, u)
		}
		return Int(u), nil
	case reflect.Float32:
		return Float(widen32(rv.Float())), nil
	case reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return Str(rv.String()), nil
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Str(rv.Bytes()), nil
		}
		return listOf(rv)
	case reflect.Array:
		return listOf(rv)
	case reflect.Map:
		if rv.IsNil() {
			return Null{}, nil
		}
		return mapOf(rv)
	case reflect.Struct:
		if rv.Type().ConvertibleTo(timeType) {
			return Str(rv.Convert(timeType).Interface().(time.Time).Format(timeLayout)), nil
		}
	}
	return nil, fmt.Errorf("%w: unsupported type %s", ErrConversion, rv.Type())
}

// listOf converts every element of a slice or array.
func listOf(rv reflect.Value) (Value, error) {
	out := make(List, rv.Len())
	for i := range out {
		v, err := ValueOf(rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// mapOf converts a string- or integer-keyed map into a Map sorted by key.
func mapOf(rv reflect.Value) (Value, error) {
	keys := rv.MapKeys()
	var name func(k reflect.Value) string

	switch rv.Type().Key().Kind() {
	case reflect.String:
		name = reflect.Value.String
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		name = func(k reflect.Value) string { return strconv.FormatInt(k.Int(), 10) }
		sort.Slice(keys, func(i, j int) bool { return keys[i].Int() < keys[j].Int() })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		name = func(k reflect.Value) string { return strconv.FormatUint(k.Uint(), 10) }
		sort.Slice(keys, func(i, j int) bool { return keys[i].Uint() < keys[j].Uint() })
	default:
		return nil, fmt.Errorf("%w: map key type %s is neither a string nor an integer", ErrConversion, rv.Type().Key())
	}

	out := make(Map, len(keys))
	for i, k := range keys {
		key := name(k)
		v, err := ValueOf(rv.MapIndex(k).Interface())
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		out[i] = Pair{Key: key, Value: v}
	}
	return out, nil
}

// widen32 turns a float32 held in a float64 into the float64 with the same
// shortest decimal form, so float32(0.1) becomes 0.1 rather than
// 0.10000000149011612.
func widen32(f float64) float64 {
	w, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', -1, 32), 64)
	if err != nil {
		return f
	}
	return w
}
