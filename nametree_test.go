package pdf

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-pdf/xref/internal/types"
)

func leafDict(pairs ...types.Object) types.Dict {
	return types.Dict{"Names": types.Array(pairs)}
}

func Test_NameTree_Get(t *testing.T) {
	testCases := map[string]struct {
		root    types.Dict
		key     string
		want    string
		wantOk  bool
	}{
		"single leaf, in order": {
			root:   leafDict("a", "v1", "b", "v2"),
			key:    "b",
			want:   "v2",
			wantOk: true,
		},
		"single leaf, out of order falls back to linear scan": {
			root:   leafDict("b", "v1", "a", "v2"),
			key:    "a",
			want:   "v2",
			wantOk: true,
		},
		"missing key": {
			root:   leafDict("a", "v1", "b", "v2"),
			key:    "z",
			wantOk: false,
		},
		"empty leaf": {
			root:   leafDict(),
			key:    "a",
			wantOk: false,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tree := NewNameTree(newValue(nil, nil, tc.root))
			got, ok := tree.Get(tc.key)
			if ok != tc.wantOk {
				t.Fatalf("Get(%q) ok = %v, want %v", tc.key, ok, tc.wantOk)
			}
			if ok && got.RawString() != tc.want {
				t.Errorf("Get(%q) = %q, want %q", tc.key, got.RawString(), tc.want)
			}
		})
	}
}

func Test_NameTree_GetAll(t *testing.T) {
	root := leafDict("a", "v1", "b", "v2", "c", "v3")
	tree := NewNameTree(newValue(nil, nil, root))

	all, err := tree.GetAll()
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}

	got := make(map[string]string, len(all))
	for k, v := range all {
		got[k] = v.RawString()
	}
	want := map[string]string{"a": "v1", "b": "v2", "c": "v3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("GetAll() mismatch (-want +got):\n%s", diff)
	}
}

func Test_NameTree_Kids_BinarySearch(t *testing.T) {
	kid0 := types.Dict{"Limits": types.Array{"a", "m"}, "Names": types.Array{"a", "va", "m", "vm"}}
	kid1 := types.Dict{"Limits": types.Array{"n", "z"}, "Names": types.Array{"n", "vn", "z", "vz"}}
	root := types.Dict{"Kids": types.Array{kid0, kid1}}

	tree := NewNameTree(newValue(nil, nil, root))

	got, ok := tree.Get("z")
	if !ok || got.RawString() != "vz" {
		t.Fatalf("Get(%q) = (%q, %v), want (%q, true)", "z", got.RawString(), ok, "vz")
	}

	if _, ok := tree.Get("q"); ok {
		t.Errorf("Get(%q) unexpectedly found a value: it is within kid1's Limits but not among its Names", "q")
	}
}

func Test_NumberTree_Get(t *testing.T) {
	root := types.Dict{"Nums": types.Array{int64(0), "zero", int64(5), "five"}}
	tree := NewNumberTree(newValue(nil, nil, root))

	got, ok := tree.Get(5)
	if !ok || got.RawString() != "five" {
		t.Fatalf("Get(5) = (%q, %v), want (%q, true)", got.RawString(), ok, "five")
	}
	if _, ok := tree.Get(3); ok {
		t.Errorf("Get(3) unexpectedly found a value")
	}
}

func Test_NameTree_GetAll_CycleDetected(t *testing.T) {
	refs := types.NewRefTable()
	ref := refs.Intern(1, 0)

	xr := &XRef{refs: refs, cache: map[uint32]types.Object{
		1: types.Dict{"Kids": types.Array{ref}},
	}}
	rooted := newValue(xr, nil, types.Dict{"Kids": types.Array{ref}})

	tree := NewNameTree(rooted)
	if _, err := tree.GetAll(); err == nil {
		t.Fatalf("GetAll on a self-referential Kids chain: got nil error, want a cycle FormatError")
	}
}
