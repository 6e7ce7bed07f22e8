package pdf

import (
	"github.com/go-pdf/xref/internal/types"
)

// tableResumeState checkpoints processXRefTable's progress through a
// subsection so a *MissingDataError raised mid-subsection reports
// exactly how far the previous attempt got — spec §4.1.2 "State
// checkpointing". A retried Parse re-reads the cross-reference sections
// from the start of its queue rather than seeking to entry index
// directly: Parse rebuilds the entry table on each attempt and every
// entry is written first-writer-wins (setEntryFirstWriterWins), so
// re-applying already-seen entries after a retry is always safe.
type tableResumeState struct {
	first, count, index int64
}

// processXRefTable reads one or more classical xref subsections
// starting at b, terminated by the "trailer" keyword, and returns the
// trailer dictionary. Grounded in the teacher's readXrefTableData,
// generalized with first-writer-wins bookkeeping via entrySet and a
// resumable checkpoint.
func (x *XRef) processXRefTable(b *buffer, entrySet *[]bool) (types.Dict, *types.Ref, error) {
	for {
		tok := b.readToken()
		if tok == types.Cmd("trailer") {
			break
		}
		first, ok1 := tok.(int64)
		n, ok2 := b.readToken().(int64)
		if !ok1 || !ok2 {
			b.errorf("malformed xref table subsection header")
		}
		x.readSubsection(b, first, n, entrySet)
	}

	x.tableState = nil

	trailer, ok := b.readObject().(types.Dict)
	if !ok {
		b.errorf("xref table not followed by trailer dictionary")
	}
	return trailer, nil, nil
}

// readSubsection reads n entries of a FIRST COUNT subsection,
// checkpointing progress before each entry.
func (x *XRef) readSubsection(b *buffer, first, n int64, entrySet *[]bool) {
	for i := int64(0); i < n; i++ {
		x.tableState = &tableResumeState{first: first, count: n, index: i}

		off, ok1 := b.readToken().(int64)
		gen, ok2 := b.readToken().(int64)
		alloc, ok3 := b.readToken().(types.Cmd)
		if !ok1 || !ok2 || !ok3 || (alloc != "f" && alloc != "n") {
			b.errorf("malformed xref table entry")
		}

		num := int(first + i)
		var e types.XRefEntry
		if alloc == "n" {
			e = types.XRefEntry{Kind: types.EntryUncompressed, Offset: off, Gen: uint16(gen)}
		} else {
			e = types.XRefEntry{Kind: types.EntryFree, Gen: uint16(gen)}
		}
		x.setEntryFirstWriterWins(num, e, entrySet)
	}
	x.tableState = nil
}
