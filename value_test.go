package pdf

import (
	"testing"

	"github.com/go-pdf/xref/internal/types"
)

func Test_Value_Kind(t *testing.T) {
	testCases := map[string]struct {
		data any
		want ValueKind
	}{
		"null":    {nil, NullKind},
		"bool":    {true, BoolKind},
		"integer": {int64(1), IntegerKind},
		"real":    {1.5, RealKind},
		"string":  {"s", StringKind},
		"name":    {types.Name("N"), NameKind},
		"dict":    {types.Dict{}, DictKind},
		"array":   {types.Array{}, ArrayKind},
		"stream":  {types.Stream{}, StreamKind},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			v := newValue(nil, nil, tc.data)
			if got := v.Kind(); got != tc.want {
				t.Errorf("Kind() = %v, want %v", got, tc.want)
			}
		})
	}
}

func Test_Value_Float64_ConvertsFromInteger(t *testing.T) {
	v := newValue(nil, nil, int64(7))
	if got := v.Float64(); got != 7.0 {
		t.Errorf("Float64() on an integer = %v, want 7.0", got)
	}
}

func Test_Value_Float64_WrongKind(t *testing.T) {
	v := newValue(nil, nil, "not a number")
	if got := v.Float64(); got != 0 {
		t.Errorf("Float64() on a string = %v, want 0", got)
	}
}

func Test_Value_Text_PlainASCII(t *testing.T) {
	v := newValue(nil, nil, "hello world")
	if got := v.Text(); got != "hello world" {
		t.Errorf("Text() = %q, want %q", got, "hello world")
	}
}

func Test_Value_Text_UTF16WithBOM(t *testing.T) {
	// "Hi" encoded as big-endian UTF-16 with a leading BOM, as produced
	// by a PDF text string written in UTF-16BE.
	utf16 := "\xfe\xff\x00H\x00i"
	v := newValue(nil, nil, utf16)
	if got := v.Text(); got != "Hi" {
		t.Errorf("Text() on a BOM-prefixed UTF-16 string = %q, want %q", got, "Hi")
	}
}

func Test_Value_TextFromUTF16_OddLengthRejected(t *testing.T) {
	v := newValue(nil, nil, "\x00H\x00")
	if got := v.TextFromUTF16(); got != "" {
		t.Errorf("TextFromUTF16() on odd-length data = %q, want empty", got)
	}
}

func Test_Value_Name_StripsNoSlash(t *testing.T) {
	v := newValue(nil, nil, types.Name("Helvetica"))
	if got := v.Name(); got != "Helvetica" {
		t.Errorf("Name() = %q, want %q", got, "Helvetica")
	}
}

func Test_Value_Key_OnStream_UsesHeaderDict(t *testing.T) {
	strm := types.Stream{Hdr: types.Dict{"Length": int64(42)}}
	v := newValue(nil, nil, strm)
	if got := v.Key("Length").Int64(); got != 42 {
		t.Errorf("Key(\"Length\") on a stream = %d, want 42", got)
	}
}

func Test_Value_Key_WrongKind_ReturnsNull(t *testing.T) {
	v := newValue(nil, nil, int64(1))
	if got := v.Key("Anything"); got.Kind() != NullKind {
		t.Errorf("Key() on a non-dict/stream value = %v, want NullKind", got.Kind())
	}
}

func Test_Value_Lookup_DistinguishesAbsentFromNull(t *testing.T) {
	d := types.Dict{"Present": nil}
	v := newValue(nil, nil, d)

	if _, ok := v.Lookup("Absent"); ok {
		t.Errorf("Lookup(%q) ok = true, want false", "Absent")
	}
	if _, ok := v.Lookup("Present"); !ok {
		t.Errorf("Lookup(%q) ok = false, want true (key present with null value)", "Present")
	}
}

func Test_Value_Keys_SortedAndNonNil(t *testing.T) {
	d := types.Dict{"b": int64(1), "a": int64(2)}
	v := newValue(nil, nil, d)
	got := v.Keys()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", got)
	}

	empty := newValue(nil, nil, types.Dict{})
	if keys := empty.Keys(); keys == nil || len(keys) != 0 {
		t.Errorf("Keys() on an empty dict = %v, want a non-nil empty slice", keys)
	}
}

func Test_Value_Index_OutOfBounds(t *testing.T) {
	v := newValue(nil, nil, types.Array{int64(1)})
	if got := v.Index(5); got.Kind() != NullKind {
		t.Errorf("Index(5) on a 1-element array = %v, want NullKind", got.Kind())
	}
	if got := v.Index(-1); got.Kind() != NullKind {
		t.Errorf("Index(-1) = %v, want NullKind", got.Kind())
	}
}

func Test_Value_RawElements(t *testing.T) {
	arr := types.Array{int64(1), int64(2)}
	v := newValue(nil, nil, arr)
	got := v.RawElements()
	if len(got) != 2 {
		t.Errorf("RawElements() = %v, want 2 elements", got)
	}

	notArray := newValue(nil, nil, int64(1))
	if got := notArray.RawElements(); got != nil {
		t.Errorf("RawElements() on a non-array = %v, want nil", got)
	}
}

func Test_objfmtValue_NamePrefixedWithSlash(t *testing.T) {
	if got := objfmtValue(types.Name("Fit")); got != "/Fit" {
		t.Errorf("objfmtValue(Name) = %q, want %q", got, "/Fit")
	}
}

// Test_objfmtValue_UTF16WithBOM_StripsBOM covers the same BOM-stripping
// rule Text() applies: objfmtValue must not leak the leading U+FEFF
// byte-order mark into the decoded string.
func Test_objfmtValue_UTF16WithBOM_StripsBOM(t *testing.T) {
	utf16 := "\xfe\xff\x00H\x00i"
	got := objfmtValue(utf16)
	want := `"Hi"`
	if got != want {
		t.Errorf("objfmtValue(BOM-prefixed UTF-16 string) = %q, want %q", got, want)
	}
}

func Test_objfmtValue_DictKeysSorted(t *testing.T) {
	d := types.Dict{"B": int64(2), "A": int64(1)}
	got := objfmtValue(d)
	want := "<</A 1 /B 2>>"
	if got != want {
		t.Errorf("objfmtValue(dict) = %q, want %q", got, want)
	}
}
