package decode

import (
	"sort"
	"strings"
)

// Descriptor is the decoded field snapshot of one matched element: a mapping
// from field name (class, id, label, rect, frame, ...) to value. It is never
// mutated after construction.
//
// Every accessor is tolerant: a missing or wrong-typed field yields the zero
// value and false, never an error. UI element kinds expose different field
// sets, so absence means "not present on this element".
type Descriptor struct {
	fields map[string]Value
}

// NewDescriptor builds a descriptor from a field map. The map is copied.
func NewDescriptor(fields map[string]Value) Descriptor {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Descriptor{fields: cp}
}

// Len returns the number of fields.
func (d Descriptor) Len() int { return len(d.fields) }

// Has reports whether the field is present and not null.
func (d Descriptor) Has(key string) bool {
	v, ok := d.fields[key]
	return ok && !v.IsNull()
}

// Get returns the raw field value, or Null.
func (d Descriptor) Get(key string) Value {
	return d.fields[key]
}

// String returns a string field.
func (d Descriptor) String(key string) (string, bool) {
	return d.fields[key].Str()
}

// Int returns an integer field.
func (d Descriptor) Int(key string) (int, bool) {
	return d.fields[key].Int()
}

// Bool returns a boolean field.
func (d Descriptor) Bool(key string) (bool, bool) {
	return d.fields[key].Bool()
}

// Descriptor returns a nested mapping field.
func (d Descriptor) Descriptor(key string) (Descriptor, bool) {
	return d.fields[key].Descriptor()
}

// Keys returns the field names in sorted order.
func (d Descriptor) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for k := range d.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Equal reports structural equality over all fields.
func (d Descriptor) Equal(o Descriptor) bool {
	if len(d.fields) != len(o.fields) {
		return false
	}
	for k, v := range d.fields {
		ov, ok := o.fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Interface converts the descriptor into a plain map.
func (d Descriptor) Interface() map[string]interface{} {
	out := make(map[string]interface{}, len(d.fields))
	for k, v := range d.fields {
		out[k] = v.Interface()
	}
	return out
}

// Dump renders the descriptor with sorted keys.
func (d Descriptor) Dump() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range d.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(d.fields[k].String())
	}
	b.WriteString("}")
	return b.String()
}
