package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/go-pdf/xref/internal/types"
)

// newXRefWithSingleEntry builds an XRef over src whose entry table names
// exactly one uncompressed object, 2 0, at off — enough scaffolding to
// drive Fetch/FetchAsync/LoadSubgraph without a full bootstrap.
func newXRefWithSingleEntry(src ByteSource, off int64) *XRef {
	x := NewXRef(src)
	x.entries = []types.XRefEntry{
		{},
		{},
		{Kind: types.EntryUncompressed, Offset: off, Gen: 0},
	}
	return x
}

// Test_LoadSubgraph_RevisitsAfterMissingRange drives LoadSubgraph over a
// MemChunkedSource whose only resident bytes are a header preceding the
// one object it needs: the first pass must hit a *MissingDataError,
// request the object's byte range, and revisit it, ending with the
// object fully resident and reachable via a plain Fetch — spec §4.11's
// ObjectLoader algorithm exercised end to end for the first time.
func Test_LoadSubgraph_RevisitsAfterMissingRange(t *testing.T) {
	header := "%PDF-1.4\n"
	objText := "2 0 obj\n<</Foo 1>>\nendobj\n"
	data := []byte(header + objText)
	off := int64(len(header))

	src := NewMemChunkedSource(data, []ByteRange{{Begin: 0, End: off}})
	x := newXRefWithSingleEntry(src, off)

	kidsRef := x.refs.Intern(2, 0)
	root := newValue(x, nil, types.Dict{"Kids": kidsRef})

	if err := x.LoadSubgraph(context.Background(), root, []string{"Kids"}); err != nil {
		t.Fatalf("LoadSubgraph: %v", err)
	}

	if missing := src.MissingChunks(0, int64(len(data))); len(missing) != 0 {
		t.Errorf("MissingChunks after LoadSubgraph = %v, want none (the revisit should have resolved them)", missing)
	}

	v, err := x.Fetch(kidsRef, false)
	if err != nil {
		t.Fatalf("Fetch after LoadSubgraph: %v", err)
	}
	if got := v.Key("Foo").Int64(); got != 1 {
		t.Errorf("Foo = %d, want 1", got)
	}
}

// Test_LoadSubgraph_NoOpOnPlainByteSource covers LoadSubgraph's fast
// path: a non-chunked ByteSource (the common case opened via Open or
// NewReader) is never missing anything, so LoadSubgraph must resolve
// immediately without attempting a type assertion that would panic.
func Test_LoadSubgraph_NoOpOnPlainByteSource(t *testing.T) {
	data := []byte("2 0 obj\n<</Foo 1>>\nendobj\n")
	x := newXRefWithSingleEntry(NewByteSource(bytes.NewReader(data), int64(len(data))), 0)

	kidsRef := x.refs.Intern(2, 0)
	root := newValue(x, nil, types.Dict{"Kids": kidsRef})

	if err := x.LoadSubgraph(context.Background(), root, []string{"Kids"}); err != nil {
		t.Fatalf("LoadSubgraph on a plain ByteSource: %v", err)
	}
}

// Test_FetchAsync_FullyResidentSourceEquivalentToFetch is spec §8's
// named round-trip property: fetchAsync(r) on a fully-loaded stream is
// equivalent to fetch(r). Two independent XRefs over the same bytes —
// one backed by a plain ByteSource, one by a fully-resident
// MemChunkedSource — must decode the same object to the same value via
// Fetch and FetchAsync respectively.
func Test_FetchAsync_FullyResidentSourceEquivalentToFetch(t *testing.T) {
	data := []byte("2 0 obj\n<</Foo 1>>\nendobj\n")

	plain := newXRefWithSingleEntry(NewByteSource(bytes.NewReader(data), int64(len(data))), 0)
	plainVal, err := plain.Fetch(plain.refs.Intern(2, 0), false)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	chunked := newXRefWithSingleEntry(NewMemChunkedSource(data, []ByteRange{{Begin: 0, End: int64(len(data))}}), 0)
	asyncVal, err := chunked.FetchAsync(context.Background(), chunked.refs.Intern(2, 0), false)
	if err != nil {
		t.Fatalf("FetchAsync: %v", err)
	}

	if got, want := asyncVal.String(), plainVal.String(); got != want {
		t.Errorf("FetchAsync on a fully-resident source = %s, want %s (Fetch's result)", got, want)
	}
}

// Test_FetchAsync_RetriesAfterMissingRange exercises FetchAsync's own
// suspend/resume loop (fetch.go's FetchAsync, not LoadSubgraph's): a
// ChunkedSource missing the object's bytes entirely must be retried
// exactly once RequestRanges has filled the gap, rather than surfacing
// *MissingDataError to the caller.
func Test_FetchAsync_RetriesAfterMissingRange(t *testing.T) {
	data := []byte("2 0 obj\n<</Foo 1>>\nendobj\n")
	src := NewMemChunkedSource(data, nil) // nothing resident yet
	x := newXRefWithSingleEntry(src, 0)

	v, err := x.FetchAsync(context.Background(), x.refs.Intern(2, 0), false)
	if err != nil {
		t.Fatalf("FetchAsync: %v", err)
	}
	if got := v.Key("Foo").Int64(); got != 1 {
		t.Errorf("Foo = %d, want 1", got)
	}
	if missing := src.MissingChunks(0, int64(len(data))); len(missing) != 0 {
		t.Errorf("MissingChunks after FetchAsync = %v, want none", missing)
	}
}
