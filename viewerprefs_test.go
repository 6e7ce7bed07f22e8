package pdf

import (
	"testing"

	"github.com/go-pdf/xref/internal/types"
)

func Test_Catalog_ViewerPreferences_Defaults(t *testing.T) {
	root := types.Dict{
		"ViewerPreferences": types.Dict{
			"HideToolbar": true,
			// NonFullScreenPageMode present but ill-typed: spec's open
			// question says mirror the source and default rather than drop.
			"NonFullScreenPageMode": int64(1),
		},
	}
	c := &Catalog{root: newValue(nil, nil, root), cache: make(map[string]any)}

	vp := c.ViewerPreferences()
	if vp == nil {
		t.Fatal("ViewerPreferences() = nil, want a populated struct")
	}
	if !vp.HideToolbar {
		t.Errorf("HideToolbar = false, want true")
	}
	if vp.NonFullScreenPageMode != "UseNone" {
		t.Errorf("NonFullScreenPageMode = %q, want default %q", vp.NonFullScreenPageMode, "UseNone")
	}
	if vp.Direction != "L2R" {
		t.Errorf("Direction = %q, want default %q", vp.Direction, "L2R")
	}
}

func Test_Catalog_ViewerPreferences_Absent(t *testing.T) {
	c := &Catalog{root: newValue(nil, nil, types.Dict{}), cache: make(map[string]any)}
	if vp := c.ViewerPreferences(); vp != nil {
		t.Errorf("ViewerPreferences() = %+v, want nil", vp)
	}
}

func Test_validPrintPageRange(t *testing.T) {
	testCases := map[string]struct {
		arr      types.Array
		numPages int64
		wantNil  bool
	}{
		"valid even non-decreasing": {
			arr:      types.Array{int64(1), int64(3), int64(5), int64(10)},
			numPages: 10,
		},
		"odd length rejected": {
			arr:      types.Array{int64(1), int64(3), int64(5)},
			numPages: 10,
			wantNil:  true,
		},
		"decreasing pair rejected even though even-length": {
			arr:      types.Array{int64(5), int64(3)},
			numPages: 10,
			wantNil:  true,
		},
		"beyond numPages rejected": {
			arr:      types.Array{int64(1), int64(20)},
			numPages: 10,
			wantNil:  true,
		},
		"non-integer entry rejected": {
			arr:      types.Array{int64(1), "3"},
			numPages: 10,
			wantNil:  true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			v := newValue(nil, nil, tc.arr)
			got := validPrintPageRange(v, tc.numPages)
			if tc.wantNil && got != nil {
				t.Errorf("validPrintPageRange() = %v, want nil", got)
			}
			if !tc.wantNil && got == nil {
				t.Errorf("validPrintPageRange() = nil, want a validated range")
			}
		})
	}
}
