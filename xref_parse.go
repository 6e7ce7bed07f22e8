package pdf

import (
	"context"
	"fmt"

	"github.com/go-pdf/xref/internal/types"
)

// Parse fully processes the document's cross-reference data, filling
// in Trailer and the entry table. In normal mode it walks the
// startxref/Prev chain seeded by SetStartXRef; on any parse failure it
// returns an *XRefParseError so the caller can retry with
// recoveryMode true, which instead performs a full linear object scan
// (see recover.go). A *MissingDataError raised while reading the xref
// data itself propagates unwrapped, per spec §7's "MissingData is
// always re-raised" policy; every other parse failure is wrapped in
// *XRefParseError.
func (x *XRef) Parse(ctx context.Context, recoveryMode bool) (err error) {
	startQueue := x.startXRefQueue
	var visitedNow []int64
	defer func() {
		if r := recover(); r != nil {
			err = toParseError(r)
		}
		// On missing data, restore the queue and visited set so a retry
		// re-reads the same sections from the start of the queue.
		if _, missing := err.(*MissingDataError); missing && !recoveryMode {
			x.startXRefQueue = startQueue
			for _, off := range visitedNow {
				delete(x.visitedOffset, off)
			}
		}
	}()

	if recoveryMode {
		return x.indexObjects()
	}

	entrySet := make([]bool, 0)
	x.entries = nil
	queue := x.startXRefQueue
	x.startXRefQueue = nil
	seen := x.visitedOffset

	var trailer types.Dict
	var trailerRef *types.Ref

	for len(queue) > 0 {
		off := queue[0]
		queue = queue[1:]
		if seen[off] {
			continue
		}
		seen[off] = true
		visitedNow = append(visitedNow, off)

		dict, ref, err := x.readXRefAt(off, &entrySet)
		if err != nil {
			return &XRefParseError{Err: err}
		}
		if trailer == nil {
			trailer = dict
			trailerRef = ref
		}
		if prev, ok := x.prevOffset(dict["Prev"]); ok {
			queue = append(queue, prev)
		}
		if hybrid, ok := x.prevOffset(dict["XRefStm"]); ok {
			queue = append(queue, hybrid)
		}
	}

	if trailer == nil {
		return &XRefParseError{Err: fmt.Errorf("no cross-reference table found")}
	}
	if trailer["Size"] == nil {
		return &XRefParseError{Err: fmt.Errorf("trailer missing /Size")}
	}
	x.repairEntryZero(entrySet)

	x.trailer = trailer
	x.trailerRef = trailerRef
	return nil
}

// prevOffset accepts both a direct integer and, tolerating
// non-compliant files, an indirect reference to one (spec §4.1.2 point
// 4, and Design Notes §9's open question about Prev-via-reference).
// The referenced integer is read directly off the entry table rather
// than through fetch/cache, so it cannot itself re-enter the queue
// through a different path.
func (x *XRef) prevOffset(raw types.Object) (int64, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case *types.Ref:
		if int(v.Num) >= len(x.entries) {
			return 0, false
		}
		e := x.entries[v.Num]
		if e.Kind != types.EntryUncompressed {
			return 0, false
		}
		b := newBuffer(x.src, e.Offset, x.refs)
		obj, ok := b.readObject().(types.Objdef)
		if !ok {
			return 0, false
		}
		n, ok := obj.Obj.(int64)
		if !ok {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// readXRefAt tokenizes the object at off and dispatches to the
// classical-table or xref-stream reader, per spec §4.1.2 step 1.
func (x *XRef) readXRefAt(off int64, entrySet *[]bool) (types.Dict, *types.Ref, error) {
	b := newBuffer(x.src, off, x.refs)
	tok := b.readToken()
	if tok == types.Cmd("xref") {
		return x.processXRefTable(b, entrySet)
	}
	if _, ok := tok.(int64); ok {
		b.unreadToken(tok)
		return x.processXRefStream(b, entrySet)
	}
	return nil, nil, fmt.Errorf("cross-reference table not found at offset %d: %v", off, tok)
}

// repairEntryZero implements spec §3's invariant repair: "if entry 0
// is missing and the first subsection starts at 1 with a free entry,
// renumber to 0." entrySet reports which slots were actually written
// by a subsection or xref-stream entry, as opposed to left at their
// zero value by ensureEntries — a zero-value entry has Kind ==
// EntryFree by construction (types.EntryFree == 0), so Kind alone
// cannot distinguish "genuinely missing" from "explicitly free".
func (x *XRef) repairEntryZero(entrySet []bool) {
	if len(x.entries) == 0 {
		return
	}
	if len(entrySet) > 0 && entrySet[0] {
		return
	}
	if len(x.entries) > 1 && len(entrySet) > 1 && entrySet[1] && x.entries[1].Kind == types.EntryFree {
		x.entries[0], x.entries[1] = x.entries[1], x.entries[0]
		entrySet[0] = true
	}
}

func (x *XRef) ensureEntries(n int, entrySet *[]bool) {
	for len(x.entries) <= n {
		x.entries = append(x.entries, types.XRefEntry{})
		*entrySet = append(*entrySet, false)
	}
}

// setEntryFirstWriterWins writes e at index num unless a prior (closer
// to the file tail) xref section already claimed it, per spec
// §4.1.2's "first writer wins" rule for both classical subsections and
// xref streams.
func (x *XRef) setEntryFirstWriterWins(num int, e types.XRefEntry, entrySet *[]bool) {
	x.ensureEntries(num, entrySet)
	if (*entrySet)[num] {
		return
	}
	x.entries[num] = e
	(*entrySet)[num] = true
}

func toParseError(r any) error {
	switch e := r.(type) {
	case *MissingDataError:
		return e
	case *FormatError:
		return &XRefParseError{Err: e}
	case *XRefEntryError:
		return &XRefParseError{Err: e}
	case error:
		return &XRefParseError{Err: e}
	default:
		return &XRefParseError{Err: fmt.Errorf("%v", e)}
	}
}
