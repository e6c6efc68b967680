package lower

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/trycatch/internal/catch"
	"github.com/roach88/trycatch/internal/ir"
)

// DecodePayload builds a payload of the named type from JSON text.
//
// Floats may be given as JSON numbers or as strings in strconv.ParseFloat
// syntax; the journal stores them as strings.
func DecodePayload(typeName string, data []byte) (any, error) {
	t, err := ParseType(typeName)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, &LowerError{Arm: -1, Field: "payload", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return buildValue(t, raw, true)
}

// DecodeIR builds a payload of the named type from its journaled IR form.
func DecodeIR(typeName string, v ir.IRValue) (any, error) {
	t, err := ParseType(typeName)
	if err != nil {
		return nil, err
	}
	return buildValue(t, ir.ToGo(v), true)
}

// LiteralValue converts an IR literal to a pattern literal of type t.
// Null converts to an untyped nil, which matches nil pointers and slices.
func LiteralValue(v ir.IRValue, t reflect.Type) (any, error) {
	if t == errorType {
		return nil, &LowerError{Arm: -1, Field: "literal", Message: "error payloads support only wildcard patterns"}
	}
	if _, isNull := v.(ir.IRNull); isNull || v == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice:
			return nil, nil
		}
		return nil, &LowerError{Arm: -1, Field: "literal", Message: fmt.Sprintf("null never matches %s", TypeName(t))}
	}
	return buildValue(t, ir.ToGo(v), false)
}

func buildValue(t reflect.Type, raw any, floatStrings bool) (any, error) {
	rv, err := build(t, raw, floatStrings, "")
	if err != nil {
		return nil, &LowerError{Arm: -1, Field: "value", Message: err.Error()}
	}
	return rv.Interface(), nil
}

func build(t reflect.Type, raw any, floatStrings bool, path string) (reflect.Value, error) {
	fail := func(format string, args ...any) (reflect.Value, error) {
		msg := fmt.Sprintf(format, args...)
		if path != "" {
			msg = path + ": " + msg
		}
		return reflect.Value{}, errors.New(msg)
	}

	if raw == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return fail("null is not a %s", TypeName(t))
	}

	if t == errorType {
		s, ok := stringOf(raw)
		if !ok {
			return fail("error payload must be a string, got %T", raw)
		}
		return reflect.ValueOf(errors.New(s)), nil
	}

	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Pointer:
		elem, err := build(t.Elem(), raw, floatStrings, path)
		if err != nil {
			return reflect.Value{}, err
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(elem)
		return p, nil

	case reflect.Bool:
		b, ok := raw.(bool)
		if !ok {
			return fail("expected bool, got %T", raw)
		}
		out.SetBool(b)

	case reflect.String:
		s, ok := stringOf(raw)
		if !ok {
			return fail("expected string, got %T", raw)
		}
		out.SetString(s)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := intOf(raw)
		if err != nil {
			return fail("%v", err)
		}
		if out.OverflowInt(n) {
			return fail("%d overflows %s", n, TypeName(t))
		}
		out.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := uintOf(raw, floatStrings)
		if err != nil {
			return fail("%v", err)
		}
		if out.OverflowUint(u) {
			return fail("%d overflows %s", u, TypeName(t))
		}
		out.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := floatOf(raw, floatStrings, t.Bits())
		if err != nil {
			return fail("%v", err)
		}
		out.SetFloat(f)

	case reflect.Slice, reflect.Array:
		items, ok := raw.([]any)
		if !ok {
			return fail("expected list, got %T", raw)
		}
		if t.Kind() == reflect.Array && len(items) != t.Len() {
			return fail("expected %d elements, got %d", t.Len(), len(items))
		}
		if t.Kind() == reflect.Slice {
			out = reflect.MakeSlice(t, len(items), len(items))
		}
		for i, item := range items {
			elem, err := build(t.Elem(), item, floatStrings, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(elem)
		}

	default:
		return fail("unsupported type %s", t)
	}
	return out, nil
}

func intOf(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected integer, got %s", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expected integer, got %T", raw)
}

func uintOf(raw any, numericStrings bool) (uint64, error) {
	switch v := raw.(type) {
	case string:
		// Journaled form of values above math.MaxInt64
		if numericStrings {
			if u, err := strconv.ParseUint(v, 10, 64); err == nil {
				return u, nil
			}
		}
	case int64:
		if v < 0 {
			return 0, fmt.Errorf("%d is negative", v)
		}
		return uint64(v), nil
	case json.Number:
		u, err := strconv.ParseUint(v.String(), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("expected unsigned integer, got %s", v)
		}
		return u, nil
	}
	return 0, fmt.Errorf("expected unsigned integer, got %T", raw)
}

func floatOf(raw any, floatStrings bool, bits int) (float64, error) {
	switch v := raw.(type) {
	case int64:
		return float64(v), nil
	case json.Number:
		return strconv.ParseFloat(v.String(), bits)
	case string:
		if floatStrings {
			f, err := strconv.ParseFloat(v, bits)
			if err != nil {
				return 0, fmt.Errorf("invalid float %q", v)
			}
			return f, nil
		}
		return 0, fmt.Errorf("float literals must be integers, got string %q", v)
	}
	return 0, fmt.Errorf("expected number, got %T", raw)
}

// EncodeValue converts a Go value to IR for journaling.
//
// Floats encode as strings in the shortest round-trip form. Nil pointers
// and nil slices encode as null. Errors encode as their message. Strings
// that canonical JSON would rewrite encode as a raw-bytes object.
func EncodeValue(v any) (ir.IRValue, error) {
	return encode(reflect.ValueOf(v))
}

var errorIface = reflect.TypeOf((*error)(nil)).Elem()

func encode(rv reflect.Value) (ir.IRValue, error) {
	if !rv.IsValid() {
		return ir.IRNull{}, nil
	}
	if rv.Type().Implements(errorIface) {
		if isNil(rv) {
			return ir.IRNull{}, nil
		}
		return encodeString(rv.Interface().(error).Error()), nil
	}

	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return ir.IRNull{}, nil
		}
		return encode(rv.Elem())
	case reflect.Bool:
		return ir.IRBool(rv.Bool()), nil
	case reflect.String:
		return encodeString(rv.String()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ir.IRInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return ir.IRString(strconv.FormatUint(u, 10)), nil
		}
		return ir.IRInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return ir.IRString(strconv.FormatFloat(rv.Float(), 'g', -1, rv.Type().Bits())), nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return ir.IRNull{}, nil
		}
		arr := make(ir.IRArray, rv.Len())
		for i := range arr {
			elem, err := encode(rv.Index(i))
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			arr[i] = elem
		}
		return arr, nil
	}
	return nil, fmt.Errorf("cannot encode %s", rv.Type())
}

// RawBytesKey is the only key of the IR object that journals a string
// which is not valid NFC-normalized UTF-8. Its value is the standard
// base64 encoding of the string's bytes.
const RawBytesKey = "raw_bytes"

// encodeString keeps strings byte-exact through canonical JSON, which
// replaces invalid UTF-8 and normalizes to NFC.
func encodeString(s string) ir.IRValue {
	if utf8.ValidString(s) && norm.NFC.IsNormalString(s) {
		return ir.IRString(s)
	}
	return ir.IRObject{RawBytesKey: ir.IRString(base64.StdEncoding.EncodeToString([]byte(s)))}
}

// stringOf accepts a plain string or the raw-bytes object.
func stringOf(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case map[string]any:
		enc, ok := v[RawBytesKey].(string)
		if !ok || len(v) != 1 {
			return "", false
		}
		b, err := base64.StdEncoding.DecodeString(enc)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
	return "", false
}

func isNil(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// EncodePayload returns the type name and IR form of a captured payload.
// Payloads that cannot be encoded fall back to their %v rendering and
// report ok=false.
func EncodePayload(payload any) (typeName string, value ir.IRValue, ok bool) {
	typeName = catch.TypeName(payload)
	if t := reflect.TypeOf(payload); t != nil {
		typeName = TypeName(t)
	}
	v, err := EncodeValue(payload)
	if err != nil {
		return typeName, ir.IRString(fmt.Sprintf("%v", payload)), false
	}
	return typeName, v, true
}

// EncodeBindings converts match bindings to an IR object.
func EncodeBindings(b catch.Bindings) (ir.IRObject, error) {
	obj := make(ir.IRObject, len(b))
	for _, name := range b.Names() {
		v, err := EncodeValue(b[name])
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", name, err)
		}
		obj[name] = v
	}
	return obj, nil
}
