package pdf

import (
	"testing"

	"github.com/go-pdf/xref/internal/types"
)

func Test_Catalog_Permissions(t *testing.T) {
	testCases := map[string]struct {
		trailer types.Dict
		want    *Permissions
	}{
		"no encrypt dict": {
			trailer: types.Dict{},
			want:    nil,
		},
		"P not an integer": {
			trailer: types.Dict{"Encrypt": types.Dict{"P": "nope"}},
			want:    nil,
		},
		"print and copy only": {
			trailer: types.Dict{"Encrypt": types.Dict{"P": int64(1<<2 | 1<<4)}},
			want: &Permissions{
				Print: true,
				Copy:  true,
				Raw:   1<<2 | 1<<4,
			},
		},
		"negative P (all reserved high bits set) decodes via uint32 wraparound": {
			trailer: types.Dict{"Encrypt": types.Dict{"P": int64(-4)}},
			want: &Permissions{
				Print:                   true,
				Modify:                  true,
				Copy:                    true,
				Annotate:                true,
				FillForms:               true,
				ExtractForAccessibility: true,
				Assemble:                true,
				PrintHighRes:            true,
				Raw:                     uint32(0xFFFFFFFC),
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			c := &Catalog{
				x:     &XRef{trailer: tc.trailer},
				root:  newValue(nil, nil, types.Dict{}),
				cache: make(map[string]any),
			}
			got := c.Permissions()
			if tc.want == nil {
				if got != nil {
					t.Fatalf("Permissions() = %+v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Permissions() = nil, want %+v", tc.want)
			}
			if *got != *tc.want {
				t.Errorf("Permissions() = %+v, want %+v", got, tc.want)
			}
		})
	}
}
