package decode

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Parse decodes a raw JSON document. It never fails: malformed input decodes
// as Null.
func Parse(raw []byte) Value {
	if !gjson.ValidBytes(raw) {
		return Null()
	}
	return fromResult(gjson.ParseBytes(raw))
}

// Field decodes the value at a gjson path inside a raw JSON document, or Null
// when the path does not exist.
func Field(raw []byte, path string) Value {
	if !gjson.ValidBytes(raw) {
		return Null()
	}
	return fromResult(gjson.GetBytes(raw, path))
}

func fromResult(r gjson.Result) Value {
	switch r.Type {
	case gjson.Null:
		return Null()
	case gjson.False:
		return Bool(false)
	case gjson.True:
		return Bool(true)
	case gjson.Number:
		return fromNumber(r)
	case gjson.String:
		return String(r.Str)
	case gjson.JSON:
		if r.IsArray() {
			var items []Value
			r.ForEach(func(_, item gjson.Result) bool {
				items = append(items, fromResult(item))
				return true
			})
			return List(items...)
		}
		fields := make(map[string]Value)
		r.ForEach(func(key, item gjson.Result) bool {
			fields[key.Str] = fromResult(item)
			return true
		})
		return FromDescriptor(Descriptor{fields: fields})
	default:
		return Null()
	}
}

// fromNumber reads integral literals exactly and truncates fractional ones
// toward zero. Numbers that do not fit in an int decode as Null.
func fromNumber(r gjson.Result) Value {
	if r.Raw != "" && !strings.ContainsAny(r.Raw, ".eE") {
		i, err := strconv.ParseInt(r.Raw, 10, strconv.IntSize)
		if err != nil {
			return Null()
		}
		return Int(int(i))
	}
	return fromFloat(r.Num)
}
