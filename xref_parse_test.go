package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-pdf/xref/internal/types"
)

// Test_repairEntryZero is a table-driven unit test of spec §8's first
// named boundary behavior: entry 0 is repaired by swapping with entry 1
// only when entry 0 was never written by any subsection/xref-stream
// AND entry 1 was written AND entry 1 is free. Every other combination
// must leave the table untouched.
func Test_repairEntryZero(t *testing.T) {
	free := types.XRefEntry{Kind: types.EntryFree, Gen: 65535}
	uncompressed := types.XRefEntry{Kind: types.EntryUncompressed, Offset: 100}

	tests := []struct {
		name     string
		entries  []types.XRefEntry
		entrySet []bool
		wantSwap bool
	}{
		{
			name:     "fires when entry 0 missing and entry 1 is free",
			entries:  []types.XRefEntry{{}, free},
			entrySet: []bool{false, true},
			wantSwap: true,
		},
		{
			name:     "does not fire when entry 0 was already written",
			entries:  []types.XRefEntry{uncompressed, free},
			entrySet: []bool{true, true},
			wantSwap: false,
		},
		{
			name:     "does not fire when entry 1 was never written",
			entries:  []types.XRefEntry{{}, {}},
			entrySet: []bool{false, false},
			wantSwap: false,
		},
		{
			name:     "does not fire when entry 1 is not free",
			entries:  []types.XRefEntry{{}, uncompressed},
			entrySet: []bool{false, true},
			wantSwap: false,
		},
		{
			name:     "does not fire with no entry 1 slot at all",
			entries:  []types.XRefEntry{{}},
			entrySet: []bool{false},
			wantSwap: false,
		},
		{
			name:     "no-op on an empty entry table",
			entries:  nil,
			entrySet: nil,
			wantSwap: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			x := &XRef{entries: append([]types.XRefEntry(nil), tc.entries...)}
			entrySet := append([]bool(nil), tc.entrySet...)
			var before0 types.XRefEntry
			if len(x.entries) > 0 {
				before0 = x.entries[0]
			}

			x.repairEntryZero(entrySet)

			if len(x.entries) == 0 {
				return
			}
			gotSwap := x.entries[0] != before0
			if gotSwap != tc.wantSwap {
				t.Errorf("swap fired = %v, want %v (entries[0] = %+v)", gotSwap, tc.wantSwap, x.entries[0])
			}
			if tc.wantSwap {
				if x.entries[0].Kind != types.EntryFree {
					t.Errorf("entries[0].Kind = %v, want EntryFree after swap", x.entries[0].Kind)
				}
				if !entrySet[0] {
					t.Errorf("entrySet[0] = false, want true after swap")
				}
			}
		})
	}
}

// Test_repairEntryZero_NormalModeEndToEnd drives the swap through a
// real classical-table document via Parse rather than calling
// repairEntryZero directly, proving it is actually wired onto the
// normal-mode call path (xref_parse.go's Parse, not just reachable in
// isolation). The table's first subsection starts at object 1 (object
// 0 is never written), and entry 1 is free — the exact trigger
// condition.
func Test_repairEntryZero_NormalModeEndToEnd(t *testing.T) {
	header := "%PDF-1.4\n"
	obj1 := "1 0 obj\n<</Type/Catalog>>\nendobj\n"

	off1 := int64(len(header))
	xrefOff := off1 + int64(len(obj1))

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString(obj1)
	buf.WriteString("xref\n")
	// Subsection starts at 1, not 0: entry 0 is never written by any
	// subsection. Its sole entry, object 1, is marked free — a
	// deliberately malformed but recoverable table.
	buf.WriteString("1 1\n")
	buf.WriteString("0000000000 65535 f \n")
	buf.WriteString("trailer\n<</Size 2/Root 1 0 R>>\n")
	buf.WriteString("startxref\n")
	fmt.Fprintf(&buf, "%d\n", xrefOff)
	buf.WriteString("%%EOF")

	x := NewXRef(NewByteSource(bytes.NewReader(buf.Bytes()), int64(buf.Len())))
	x.SetStartXRef(xrefOff)
	if err := x.Parse(context.Background(), false); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(x.entries) < 2 {
		t.Fatalf("len(entries) = %d, want at least 2", len(x.entries))
	}
	if x.entries[0].Kind != types.EntryFree || x.entries[0].Gen != 65535 {
		t.Errorf("entries[0] = %+v, want EntryFree with Gen 65535 (repaired from entry 1)", x.entries[0])
	}
}

// Test_repairEntryZero_NormalModeNotTriggeredWhenEntryZeroWritten
// covers the negative case on the same call path: a table whose first
// subsection starts at 0 writes entry 0 directly, so no repair should
// fire even though entry 0 happens to be free too (the ordinary,
// well-formed case).
func Test_repairEntryZero_NormalModeNotTriggeredWhenEntryZeroWritten(t *testing.T) {
	header := "%PDF-1.4\n"
	obj1 := "1 0 obj\n<</Type/Catalog>>\nendobj\n"

	off1 := int64(len(header))
	xrefOff := off1 + int64(len(obj1))

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString(obj1)
	buf.WriteString("xref\n0 2\n")
	buf.WriteString("0000000000 65535 f \n")
	fmt.Fprintf(&buf, "%010d 00000 n \n", off1)
	buf.WriteString("trailer\n<</Size 2/Root 1 0 R>>\n")
	buf.WriteString("startxref\n")
	fmt.Fprintf(&buf, "%d\n", xrefOff)
	buf.WriteString("%%EOF")

	x := NewXRef(NewByteSource(bytes.NewReader(buf.Bytes()), int64(buf.Len())))
	x.SetStartXRef(xrefOff)
	if err := x.Parse(context.Background(), false); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if x.entries[1].Kind != types.EntryUncompressed || x.entries[1].Offset != off1 {
		t.Errorf("entries[1] = %+v, want the uncompressed object-1 entry untouched by any repair", x.entries[1])
	}
}

// Test_Parse_CyclicPrevChainTerminates builds two classical xref
// sections whose Prev entries point at each other, forming a cycle.
// Without xref.go's visitedOffset guard this would loop forever;
// spec §8's fifth named Boundary behavior requires Parse to terminate
// instead. Neither section carries /Size, so once the cycle is
// detected and the queue drains, Parse must return a bounded
// *XRefParseError rather than hang.
func Test_Parse_CyclicPrevChainTerminates(t *testing.T) {
	header := "%PDF-1.4\n"
	obj1 := "1 0 obj\n<</Type/Catalog>>\nendobj\n"

	off1 := int64(len(header))
	offA := off1 + int64(len(obj1))

	tableABody := "xref\n0 2\n0000000000 65535 f \n" + fmt.Sprintf("%010d 00000 n \n", off1)

	const prevWidth = 10
	trailerAPrefix := "trailer\n<</Root 1 0 R/Prev "
	trailerASuffix := ">>\n"
	offB := offA + int64(len(tableABody)+len(trailerAPrefix)+prevWidth+len(trailerASuffix))
	trailerA := trailerAPrefix + fmt.Sprintf("%0*d", prevWidth, offB) + trailerASuffix
	tableAFull := tableABody + trailerA

	tableBBody := "xref\n0 2\n0000000000 65535 f \n" + fmt.Sprintf("%010d 00000 n \n", off1)
	trailerB := fmt.Sprintf("trailer\n<</Prev %d>>\n", offA)
	tableBFull := tableBBody + trailerB

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteString(obj1)
	buf.WriteString(tableAFull)
	buf.WriteString(tableBFull)
	buf.WriteString("startxref\n")
	fmt.Fprintf(&buf, "%d\n", offA)
	buf.WriteString("%%EOF")

	x := NewXRef(NewByteSource(bytes.NewReader(buf.Bytes()), int64(buf.Len())))
	x.SetStartXRef(offA)

	err := x.Parse(context.Background(), false)
	if err == nil {
		t.Fatal("Parse on a cyclic Prev chain: got nil error, want a bounded *XRefParseError")
	}
	var xpe *XRefParseError
	if !asXRefParseError(err, &xpe) {
		t.Fatalf("Parse error = %v (%T), want an *XRefParseError", err, err)
	}
	if !strings.Contains(err.Error(), "Size") {
		t.Errorf("Parse error = %v, want it to mention the missing /Size that ends the walk", err)
	}

	if !x.visitedOffset[offA] || !x.visitedOffset[offB] {
		t.Errorf("visitedOffset = %v, want both offA=%d and offB=%d marked visited", x.visitedOffset, offA, offB)
	}
}
