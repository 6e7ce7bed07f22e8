// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pdf implements reading of the cross-reference and catalog
// structure of a PDF file: parsing the xref table or xref stream,
// resolving indirect objects on demand (recovering from corrupt or
// truncated files by rescanning when necessary), and exposing
// higher-level views (page tree, outline, destinations, attachments)
// over the resulting object graph.
//
// A document is a tagged union of values — Null, Bool, Int, Real,
// Name, String, Array, Dict, Stream, and indirect References — wrapped
// by Value. Accessors on Value (Int64, Name, Key, Index, and so on)
// return the zero result when asked for the wrong kind of data, so a
// chain of accessors can walk a document without accumulating error
// checks at every step.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-pdf/xref/internal/decrypter"
	"github.com/go-pdf/xref/internal/types"
)

// XRef is a single PDF document's cross-reference and object cache,
// open for reading. It is created once per document and mutated only
// by Parse and by on-demand fetches.
type XRef struct {
	src ByteSource
	end int64

	refs *types.RefTable

	entries    []types.XRefEntry
	trailer    types.Dict
	trailerRef *types.Ref
	decrypter  *decrypter.Decrypter

	cache map[uint32]types.Object

	startXRefQueue []int64
	visitedOffset  map[int64]bool

	tableState  *tableResumeState
	streamState *streamResumeState

	stats Stats
}

// Stats are instrumentation counters incremented by collaborators
// while processing the document; XRef itself never writes to them.
type Stats struct {
	StreamTypes map[string]int
	FontTypes   map[string]int
}

// NewXRef returns an XRef reading from src, whose total size is known
// up front. Parse must be called before Fetch or any Catalog view.
func NewXRef(src ByteSource) *XRef {
	return &XRef{
		src:           src,
		end:           src.Size(),
		refs:          types.NewRefTable(),
		cache:         make(map[uint32]types.Object),
		visitedOffset: make(map[int64]bool),
		stats: Stats{
			StreamTypes: make(map[string]int),
			FontTypes:   make(map[string]int),
		},
	}
}

// Open opens the named file and returns a parsed XRef. pw, if
// non-empty, is tried as the document password when the trailer names
// an Encrypt dictionary.
func Open(path string, pw string) (*XRef, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	size, err := fileSize(f)
	if err != nil {
		return nil, err
	}
	x := NewXRef(NewByteSource(f, size))
	if err := x.bootstrap(pw); err != nil {
		return nil, err
	}
	return x, nil
}

// NewReader builds an XRef directly from bytes already fully resident
// in memory — the common case for tests and for documents small
// enough to load in one piece.
func NewReader(data []byte, pw string) (*XRef, error) {
	x := NewXRef(NewByteSource(bytes.NewReader(data), int64(len(data))))
	if err := x.bootstrap(pw); err != nil {
		return nil, err
	}
	return x, nil
}

func (x *XRef) bootstrap(pw string) error {
	off, err := x.findStartXRef()
	if err != nil {
		return err
	}
	x.SetStartXRef(off)
	if err := x.Parse(context.Background(), false); err != nil {
		var xpe *XRefParseError
		if !asXRefParseError(err, &xpe) {
			return err
		}
		x.reset()
		if err := x.Parse(context.Background(), true); err != nil {
			return err
		}
	}
	if x.trailer["Encrypt"] == nil {
		return nil
	}
	if err := x.initEncrypt(""); err == nil {
		return nil
	} else if pw == "" || err != decrypter.ErrInvalidPassword {
		return fmt.Errorf("decrypting document: %w", err)
	}
	if err := x.initEncrypt(pw); err != nil {
		return fmt.Errorf("decrypting document: %w", err)
	}
	return nil
}

func (x *XRef) reset() {
	x.entries = nil
	x.trailer = nil
	x.trailerRef = nil
	x.cache = make(map[uint32]types.Object)
	x.visitedOffset = make(map[int64]bool)
	x.tableState = nil
	x.streamState = nil
}

func asXRefParseError(err error, target **XRefParseError) bool {
	for err != nil {
		if e, ok := err.(*XRefParseError); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// findStartXRef locates the offset named by the final "startxref"
// keyword near the end of the file.
func (x *XRef) findStartXRef() (int64, error) {
	const endChunk = 1024
	n := endChunk
	if int64(n) > x.end {
		n = int(x.end)
	}
	buf := make([]byte, n)
	if _, err := x.src.ReadAt(buf, x.end-int64(n)); err != nil && err != io.EOF {
		return 0, fmt.Errorf("reading file tail: %w", err)
	}
	i := findLastLine(buf, "startxref")
	if i < 0 {
		return 0, &InvalidPDFError{Reason: "missing final startxref"}
	}
	pos := x.end - int64(n) + int64(i)
	b := newBuffer(x.src, pos, x.refs)
	b.allowObjptr = false
	if tok := b.readToken(); tok != types.Cmd("startxref") {
		return 0, &InvalidPDFError{Reason: "missing startxref keyword"}
	}
	off, ok := b.readToken().(int64)
	if !ok {
		return 0, &InvalidPDFError{Reason: "startxref not followed by integer"}
	}
	return off, nil
}

func findLastLine(buf []byte, s string) int {
	bs := []byte(s)
	max := len(buf)
	for {
		i := bytes.LastIndex(buf[:max], bs)
		if i < 0 {
			return -1
		}
		if i+len(bs) >= len(buf) {
			max = i
			continue
		}
		return i
	}
}

// SetStartXRef seeds the queue of cross-reference locations Parse will
// process, corresponding to the startxref value at the file tail.
func (x *XRef) SetStartXRef(offset int64) {
	x.startXRefQueue = append(x.startXRefQueue, offset)
}

// Trailer returns the document trailer dictionary established by
// Parse.
func (x *XRef) Trailer() Value {
	return newValue(x, x.trailerRef, x.trailer)
}

// GetCatalogObj returns the root (catalog) dictionary named by the
// trailer's Root entry.
func (x *XRef) GetCatalogObj() Value {
	return x.Trailer().Key("Root")
}

// Stats returns the instrumentation counters collaborators may have
// incremented while processing the document.
func (x *XRef) Stats() *Stats { return &x.stats }

// resolve follows a single level of indirection: if raw is a *Ref, it
// is fetched (panicking with *MissingDataError or a parse error on
// failure, per the single documented recover boundary in Fetch);
// otherwise raw is wrapped as-is.
func (x *XRef) resolve(parent *types.Ref, raw types.Object) Value {
	ptr, ok := raw.(*types.Ref)
	if !ok {
		switch raw.(type) {
		case nil, bool, int64, float64, types.Name, types.Dict, types.Array, types.Stream, string:
			return newValue(x, nil, raw)
		default:
			panic(formatErrorf("unexpected value type %T", raw))
		}
	}
	v, err := x.fetch(ptr, false)
	if err != nil {
		panic(err)
	}
	return v
}

// GetEntry returns the raw cross-reference entry for num if it is
// allocated and uncompressed with a nonzero offset, else the second
// return is false — spec §4.1.1/§6's "getEntry", matching the shape of
// other_examples/mikeschinkel-gxpdf's GetEntry(objectNum) (*XRefEntry,
// bool) and other_examples/georgepadayatti-gopdf__xref.go's
// GetEntry(objNum) *ExtendedXRefEntry. This is raw entry metadata
// (offset/generation), distinct from Fetch, which resolves and
// decrypts the object's value.
func (x *XRef) GetEntry(num uint32) (types.XRefEntry, bool) {
	if int(num) >= len(x.entries) {
		return types.XRefEntry{}, false
	}
	e := x.entries[num]
	if e.Kind != types.EntryUncompressed || e.Offset == 0 {
		return types.XRefEntry{}, false
	}
	return e, true
}
