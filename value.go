// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"github.com/go-pdf/xref/internal/encoding"
	"github.com/go-pdf/xref/internal/types"
)

// A Value is a single PDF value, such as an integer, dictionary, or array.
// The zero Value is a PDF null (Kind() == NullKind, IsNull() == true).
type Value struct {
	x    *XRef
	ptr  *types.Ref
	data any
}

func newValue(x *XRef, ptr *types.Ref, data any) Value {
	return Value{x: x, ptr: ptr, data: data}
}

// IsNull reports whether the value is a null. It is equivalent to
// Kind() == NullKind.
func (v Value) IsNull() bool {
	return v.data == nil
}

// Ref reports the indirect reference that produced v, or nil if v
// came from a direct (in-place) object.
func (v Value) Ref() *types.Ref { return v.ptr }

// A ValueKind specifies the kind of data underlying a Value.
type ValueKind int

// The PDF value kinds.
const (
	NullKind ValueKind = iota
	BoolKind
	IntegerKind
	RealKind
	StringKind
	NameKind
	DictKind
	ArrayKind
	StreamKind
)

func (k ValueKind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case IntegerKind:
		return "integer"
	case RealKind:
		return "real"
	case StringKind:
		return "string"
	case NameKind:
		return "name"
	case DictKind:
		return "dict"
	case ArrayKind:
		return "array"
	case StreamKind:
		return "stream"
	}
	return "unknown"
}

// Kind reports the kind of value underlying v.
func (v Value) Kind() ValueKind {
	switch v.data.(type) {
	default:
		return NullKind
	case bool:
		return BoolKind
	case int64:
		return IntegerKind
	case float64:
		return RealKind
	case string:
		return StringKind
	case types.Name:
		return NameKind
	case types.Dict:
		return DictKind
	case types.Array:
		return ArrayKind
	case types.Stream:
		return StreamKind
	}
}

// String returns a textual representation of the value v.
// Note that String is not the accessor for values with Kind() == StringKind.
// To access such values, see RawString, Text, and TextFromUTF16.
func (v Value) String() string {
	return objfmtValue(v.data)
}

func objfmtValue(x any) string {
	switch x := x.(type) {
	default:
		return fmt.Sprint(x)
	case string:
		if encoding.IsPDFDocEncoded(x) {
			return strconv.Quote(encoding.PDFDocDecode(x))
		}
		if encoding.IsUTF16(x) {
			return strconv.Quote(encoding.UTF16Decode(x[2:]))
		}
		return strconv.Quote(x)
	case types.Name:
		return "/" + string(x)
	case types.Dict:
		var keys []string
		for k := range x {
			keys = append(keys, string(k))
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteString("<<")
		for i, k := range keys {
			elem := x[types.Name(k)]
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString("/")
			buf.WriteString(k)
			buf.WriteString(" ")
			buf.WriteString(objfmtValue(elem))
		}
		buf.WriteString(">>")
		return buf.String()

	case types.Array:
		var buf bytes.Buffer
		buf.WriteString("[")
		for i, elem := range x {
			if i > 0 {
				buf.WriteString(" ")
			}
			buf.WriteString(objfmtValue(elem))
		}
		buf.WriteString("]")
		return buf.String()

	case types.Stream:
		return fmt.Sprintf("%v@%d", objfmtValue(x.Hdr), x.Offset)

	case *types.Ref:
		return fmt.Sprintf("%d %d R", x.Num, x.Gen)

	case types.Objdef:
		return fmt.Sprintf("{%d %d obj}%v", x.Ptr.Num, x.Ptr.Gen, objfmtValue(x.Obj))
	}
}

// Bool returns v's boolean value.
// If v.Kind() != BoolKind, Bool returns false.
func (v Value) Bool() bool {
	x, ok := v.data.(bool)
	if !ok {
		return false
	}
	return x
}

// Int64 returns v's int64 value.
// If v.Kind() != IntegerKind, Int64 returns 0.
func (v Value) Int64() int64 {
	x, ok := v.data.(int64)
	if !ok {
		return 0
	}
	return x
}

// Float64 returns v's float64 value, converting from integer if necessary.
// If v.Kind() != RealKind and v.Kind() != IntegerKind, Float64 returns 0.
func (v Value) Float64() float64 {
	x, ok := v.data.(float64)
	if !ok {
		x, ok := v.data.(int64)
		if ok {
			return float64(x)
		}
		return 0
	}
	return x
}

// RawString returns v's string value.
// If v.Kind() != StringKind, RawString returns the empty string.
func (v Value) RawString() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	return x
}

// Text returns v's string value interpreted as a "text string" (as
// defined by ISO 32000-1 §7.9.2.2) and converted to UTF-8.
// If v.Kind() != StringKind, Text returns the empty string.
func (v Value) Text() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	if encoding.IsPDFDocEncoded(x) {
		return encoding.PDFDocDecode(x)
	}
	if encoding.IsUTF16(x) {
		return encoding.UTF16Decode(x[2:])
	}
	return x
}

// TextFromUTF16 returns v's string value interpreted as big-endian
// UTF-16 (without a byte-order mark) and converted to UTF-8.
// If v.Kind() != StringKind or the data is not valid UTF-16,
// TextFromUTF16 returns the empty string.
func (v Value) TextFromUTF16() string {
	x, ok := v.data.(string)
	if !ok {
		return ""
	}
	if len(x)%2 == 1 || x == "" {
		return ""
	}
	return encoding.UTF16Decode(x)
}

// Name returns v's name value.
// If v.Kind() != NameKind, Name returns the empty string.
// The returned name does not include the leading slash: if v
// corresponds to the name written using the syntax /Helvetica,
// Name() == "Helvetica".
func (v Value) Name() string {
	x, ok := v.data.(types.Name)
	if !ok {
		return ""
	}
	return string(x)
}

func (v Value) dict() types.Dict {
	switch x := v.data.(type) {
	case types.Dict:
		return x
	case types.Stream:
		return x.Hdr
	}
	return nil
}

// Key returns the value associated with the given name key in the
// dictionary v. Like the result of the Name method, the key should
// not include a leading slash. If v is a stream, Key applies to the
// stream's header dictionary. If v.Kind() != DictKind and
// v.Kind() != StreamKind, Key returns a null Value.
func (v Value) Key(key string) Value {
	x := v.dict()
	if x == nil {
		return Value{}
	}
	return v.x.resolve(v.ptr, x[types.Name(key)])
}

// Lookup is like Key but additionally reports whether key was present
// in the dictionary at all, as opposed to present with value null.
func (v Value) Lookup(key string) (Value, bool) {
	x := v.dict()
	if x == nil {
		return Value{}, false
	}
	raw, ok := x[types.Name(key)]
	if !ok {
		return Value{}, false
	}
	return v.x.resolve(v.ptr, raw), true
}

// Keys returns a sorted list of the keys in the dictionary v.
// If v is a stream, Keys applies to the stream's header dictionary.
// If v.Kind() != DictKind and v.Kind() != StreamKind, Keys returns nil.
func (v Value) Keys() []string {
	x := v.dict()
	if x == nil {
		return nil
	}
	keys := []string{} // not nil
	for k := range x {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return keys
}

// Index returns the i'th element in the array v.
// If v.Kind() != ArrayKind or if i is outside the array bounds,
// Index returns a null Value.
func (v Value) Index(i int) Value {
	x, ok := v.data.(types.Array)
	if !ok || i < 0 || i >= len(x) {
		return Value{}
	}
	return v.x.resolve(v.ptr, x[i])
}

// Len returns the length of the array v.
// If v.Kind() != ArrayKind, Len returns 0.
func (v Value) Len() int {
	x, ok := v.data.(types.Array)
	if !ok {
		return 0
	}
	return len(x)
}

// RawElements returns v's elements without resolving indirect
// references. If v.Kind() != ArrayKind, RawElements returns nil.
func (v Value) RawElements() types.Array {
	x, _ := v.data.(types.Array)
	return x
}
