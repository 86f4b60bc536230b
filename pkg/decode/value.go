// Package decode turns the semi-structured values returned by the automation
// server into a closed set of typed values.
package decode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the tag of a decoded Value.
type Kind int

// Value kinds. The set is closed; every switch over Kind handles all of them.
const (
	KindNull Kind = iota
	KindString
	KindInt
	KindBool
	KindList
	KindDescriptor
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindDescriptor:
		return "descriptor"
	default:
		return "unknown"
	}
}

// Value is one decoded remote value. The zero Value is Null.
type Value struct {
	kind Kind
	s    string
	i    int
	b    bool
	list []Value
	desc Descriptor
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int returns an integer value.
func Int(i int) Value { return Value{kind: KindInt, i: i} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns an ordered sequence value.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, list: cp}
}

// FromDescriptor wraps a descriptor as a value.
func FromDescriptor(d Descriptor) Value { return Value{kind: KindDescriptor, desc: d} }

// Kind returns the value's tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Int returns the integer payload.
func (v Value) Int() (int, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// Bool returns the boolean payload.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// List returns a copy of the list payload.
func (v Value) List() ([]Value, bool) {
	if v.kind != KindList {
		return nil, false
	}
	cp := make([]Value, len(v.list))
	copy(cp, v.list)
	return cp, true
}

// Len returns the number of list items, or 0 for non-lists.
func (v Value) Len() int {
	if v.kind != KindList {
		return 0
	}
	return len(v.list)
}

// Index returns the i-th list item, or Null when v is not a list or i is out of range.
func (v Value) Index(i int) Value {
	if v.kind != KindList || i < 0 || i >= len(v.list) {
		return Null()
	}
	return v.list[i]
}

// First returns the first list item, or Null.
func (v Value) First() Value { return v.Index(0) }

// Descriptor returns the descriptor payload.
func (v Value) Descriptor() (Descriptor, bool) {
	if v.kind != KindDescriptor {
		return Descriptor{}, false
	}
	return v.desc, true
}

// Truthy follows the server's notion of truth: only null and false are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindString, KindInt, KindList, KindDescriptor:
		return true
	default:
		return false
	}
}

// Equal reports structural equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindBool:
		return v.b == o.b
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindDescriptor:
		return v.desc.Equal(o.desc)
	default:
		return false
	}
}

// Interface converts v back into plain Go values (nil, string, int, bool,
// []interface{}, map[string]interface{}) for encoding.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Interface()
		}
		return out
	case KindDescriptor:
		return v.desc.Interface()
	default:
		return nil
	}
}

// String renders v for log lines.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "nil"
	case KindString:
		return strconv.Quote(v.s)
	case KindInt:
		return strconv.Itoa(v.i)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDescriptor:
		return v.desc.Dump()
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// FromAny builds a Value from plain Go data. Unknown types decode as Null,
// matching the tolerant policy of Parse.
func FromAny(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case Descriptor:
		return FromDescriptor(t)
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(t)
	case int32:
		return Int(int(t))
	case int64:
		return fromInt64(t)
	case float32:
		return fromFloat(float64(t))
	case float64:
		return fromFloat(t)
	case []Value:
		return List(t...)
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return List(items...)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return List(items...)
	case map[string]interface{}:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = FromAny(item)
		}
		return FromDescriptor(Descriptor{fields: fields})
	default:
		return Null()
	}
}

// fromFloat truncates f toward zero. Values outside the int range, NaN and
// infinities decode as Null.
func fromFloat(f float64) Value {
	if math.IsNaN(f) || f < float64(math.MinInt) || f >= -float64(math.MinInt) {
		return Null()
	}
	return Int(int(f))
}

func fromInt64(i int64) Value {
	if i < math.MinInt || i > math.MaxInt {
		return Null()
	}
	return Int(int(i))
}
