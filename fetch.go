// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdf

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/go-pdf/xref/internal/types"
)

// newReadAllSource reads rd fully into memory and returns it as a
// ByteSource, so the lexer's seekForward can random-access an object
// stream's decoded body the same way it accesses the file itself.
// Object streams are always small enough in practice for this to be
// the right tradeoff over a streaming seek.
func newReadAllSource(rd io.Reader) ByteSource {
	data, err := io.ReadAll(rd)
	if err != nil && err != io.ErrUnexpectedEOF {
		panic(formatErrorf("reading object stream: %v", err))
	}
	return NewByteSource(bytes.NewReader(data), int64(len(data)))
}

// Fetch returns the value of the indirect object ref, decrypting its
// contents when the document is encrypted and suppressEncryption is
// false. It may fail with *MissingDataError (bytes not yet resident)
// or *XRefEntryError (entry/object mismatch); every other parse
// failure surfaces as *FormatError. Fetch is deterministic within one
// XRef's lifetime: repeated calls for the same ref return the same
// value (spec §8's "fetch is deterministic ... within one session").
func (x *XRef) Fetch(ref *types.Ref, suppressEncryption bool) (v Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = Value{}, toFetchError(r)
		}
	}()
	v, _ = x.fetch(ref, suppressEncryption)
	return v, nil
}

// FetchAsync is the suspending variant of Fetch: on *MissingDataError
// it asks src (which must be a ChunkedSource) to deliver the missing
// range and retries, never surfacing *MissingDataError to the caller —
// spec §4.1.1/§5's "suspending wrapper that awaits a range and
// re-invokes".
func (x *XRef) FetchAsync(ctx context.Context, ref *types.Ref, suppressEncryption bool) (Value, error) {
	cs, chunked := x.src.(ChunkedSource)
	for {
		v, err := x.Fetch(ref, suppressEncryption)
		if err == nil {
			return v, nil
		}
		var missing *MissingDataError
		if !errorsAsMissingData(err, &missing) || !chunked {
			return Value{}, err
		}
		if err := cs.RequestRanges(ctx, []ByteRange{{missing.Begin, missing.End}}); err != nil {
			return Value{}, err
		}
	}
}

func errorsAsMissingData(err error, target **MissingDataError) bool {
	if e, ok := err.(*MissingDataError); ok {
		*target = e
		return true
	}
	return false
}

// FetchIfRef resolves raw if it is an indirect reference, and returns
// it unchanged (wrapped as a Value) otherwise.
func (x *XRef) FetchIfRef(raw types.Object, suppressEncryption bool) (Value, error) {
	ptr, ok := raw.(*types.Ref)
	if !ok {
		return newValue(x, nil, raw), nil
	}
	return x.Fetch(ptr, suppressEncryption)
}

// FetchIfRefAsync is the suspending counterpart of FetchIfRef.
func (x *XRef) FetchIfRefAsync(ctx context.Context, raw types.Object, suppressEncryption bool) (Value, error) {
	ptr, ok := raw.(*types.Ref)
	if !ok {
		return newValue(x, nil, raw), nil
	}
	return x.FetchAsync(ctx, ptr, suppressEncryption)
}

func toFetchError(r any) error {
	switch e := r.(type) {
	case *MissingDataError, *XRefEntryError, *FormatError, *InvalidPDFError:
		return e.(error)
	case error:
		return &FormatError{Msg: e.Error()}
	default:
		return formatErrorf("%v", e)
	}
}

// fetch is the panicking core Fetch wraps: it is also called directly
// by resolve (itself called from inside other panicking parse code),
// so every failure is a panic, never a returned error. The cache acts
// as a fence keyed only by ref.Num, not by suppressEncryption: the
// first completed fetch for a ref determines the value every later
// fetch of that ref sees, matching spec's single-threaded "cache is a
// fence" ordering guarantee rather than varying by caller.
func (x *XRef) fetch(ref *types.Ref, suppressEncryption bool) (Value, error) {
	if obj, ok := x.cache[ref.Num]; ok {
		return newValue(x, ref, obj), nil
	}

	if int(ref.Num) >= len(x.entries) {
		x.cache[ref.Num] = nil
		return newValue(x, ref, nil), nil
	}
	entry := x.entries[ref.Num]

	var obj types.Object
	switch entry.Kind {
	case types.EntryFree:
		x.cache[ref.Num] = nil
		return newValue(x, ref, nil), nil
	case types.EntryUncompressed:
		obj = x.fetchUncompressed(ref, entry, suppressEncryption)
		x.cacheUnlessStream(ref.Num, obj)
	case types.EntryCompressed:
		obj = x.fetchCompressed(ref, entry)
		x.cacheUnlessStream(ref.Num, obj)
	default:
		x.cache[ref.Num] = nil
		return newValue(x, ref, nil), nil
	}

	return newValue(x, ref, obj), nil
}

// cacheUnlessStream writes obj into the object cache unless it is a
// Stream: streams wrap a byte range in the file rather than holding
// decoded data, so caching one buys nothing and only risks pinning a
// stale byte range if the XRef entry is ever rewritten.
func (x *XRef) cacheUnlessStream(num uint32, obj types.Object) {
	if _, ok := obj.(types.Stream); ok {
		return
	}
	x.cache[num] = obj
}

// fetchUncompressed implements spec §4.1.3's fetchUncompressed: locate
// the "num gen obj" header at entry.Offset, validate it names ref, and
// parse exactly one value, decrypting under a per-object cipher
// transform unless suppressEncryption is set.
func (x *XRef) fetchUncompressed(ref *types.Ref, entry types.XRefEntry, suppressEncryption bool) types.Object {
	if entry.Gen != ref.Gen {
		panic(&XRefEntryError{Ref: ref, Msg: "generation mismatch"})
	}

	b := newBuffer(x.src, entry.Offset, x.refs)
	if !suppressEncryption && x.decrypter != nil {
		dec := x.decrypter
		b.decrypt = func(ptr *types.Ref, s string) (string, error) {
			return dec.DecryptString(ptr, s)
		}
	}

	raw := b.readObject()
	def, ok := raw.(types.Objdef)
	if !ok {
		panic(&XRefEntryError{Ref: ref, Msg: "xref points to non-object data"})
	}
	if def.Ptr.Num != ref.Num || def.Ptr.Gen != ref.Gen {
		panic(&XRefEntryError{Ref: ref, Msg: "object header names a different reference"})
	}

	if strm, ok := def.Obj.(types.Stream); ok {
		strm.ObjID = refObjID(ref)
		return strm
	}
	return def.Obj
}

// fetchCompressed implements spec §4.1.3's fetchCompressed: fetch the
// owning object stream, parse its N (memberObjNum, memberOffset) pairs
// from the object-stream prefix, parse the N member values, and apply
// the XRef-wins rule when caching siblings discovered along the way.
func (x *XRef) fetchCompressed(ref *types.Ref, entry types.XRefEntry) types.Object {
	stmRef := x.refs.Intern(entry.ObjStmNum, 0)
	stmVal, err := x.fetch(stmRef, false)
	if err != nil {
		panic(err)
	}
	_, ok := stmVal.data.(types.Stream)
	if !ok {
		panic(&XRefEntryError{Ref: ref, Msg: "compressed xref entry does not name an object stream"})
	}
	if stmVal.Key("Type").Name() != "ObjStm" {
		panic(&XRefEntryError{Ref: ref, Msg: "compressed xref entry's stream is not an ObjStm"})
	}

	n := int(stmVal.Key("N").Int64())
	first := stmVal.Key("First").Int64()
	if n <= 0 || first == 0 {
		panic(&XRefEntryError{Ref: ref, Msg: "object stream missing N or First"})
	}
	if entry.Index >= n {
		panic(&XRefEntryError{Ref: ref, Msg: "compressed entry index out of range"})
	}

	rd := stmVal.Reader()
	defer rd.Close()
	b := newBuffer(newReadAllSource(rd), 0, x.refs)
	b.allowObjptr = false
	b.allowStream = false
	b.allowEOF = true

	type member struct{ num uint32; off int64 }
	members := make([]member, n)
	for i := 0; i < n; i++ {
		id, ok1 := b.readToken().(int64)
		off, ok2 := b.readToken().(int64)
		if !ok1 || !ok2 {
			panic(&XRefEntryError{Ref: ref, Msg: "malformed object stream header"})
		}
		members[i] = member{num: uint32(id), off: off}
	}

	var result types.Object
	b.allowStream = false
	for i, m := range members {
		b.seekForward(first + m.off)
		if tok := b.readToken(); tok != types.Cmd("endobj") {
			b.unreadToken(tok) // not a stray endobj: put it back for readObject
		}
		v := b.readObject()
		if i == entry.Index {
			result = v
		}
		x.cacheCompressedMember(m.num, entry.ObjStmNum, i, v)
	}

	if result == nil && entry.Index < len(members) {
		panic(&XRefEntryError{Ref: ref, Msg: "object stream member not produced"})
	}
	return result
}

// cacheCompressedMember writes a member discovered while unpacking an
// object stream into the cache, but only when the entry table still
// names this exact (objStmNum, index) pair for memberNum — the
// "XRef-wins" rule spec §4.1.3 requires so a corrected later xref
// section is never shadowed by a stale object-stream member.
func (x *XRef) cacheCompressedMember(memberNum, objStmNum uint32, index int, v types.Object) {
	if int(memberNum) >= len(x.entries) {
		return
	}
	e := x.entries[memberNum]
	if e.Kind != types.EntryCompressed || e.ObjStmNum != objStmNum || e.Index != index {
		return
	}
	if _, cached := x.cache[memberNum]; cached {
		return
	}
	x.cacheUnlessStream(memberNum, v)
}

func refObjID(ref *types.Ref) string {
	return strconv.FormatInt(int64(ref.Num), 10) + " " + strconv.FormatInt(int64(ref.Gen), 10)
}
