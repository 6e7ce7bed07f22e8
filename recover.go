package pdf

import (
	"bytes"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/go-pdf/xref/internal/types"
)

// indexObjects rebuilds the cross-reference table by scanning the whole
// file for "N G obj" markers, bypassing startxref/Prev entirely. It is
// the fallback Parse takes when normal-mode parsing fails (spec
// §4.1.2's "Recovery mode"), grounded on
// other_examples/Geek0x0-pdf__recovery.go's rebuildXrefFromObjects,
// findTrailerDict and findTrailerFromXrefStream.
func (x *XRef) indexObjects() error {
	data, err := readWhole(x.src, x.end)
	if err != nil {
		return &InvalidPDFError{Reason: "cannot read file for recovery: " + err.Error()}
	}

	offsets, maxNum := scanObjectMarkers(data)
	if len(offsets) == 0 {
		return &InvalidPDFError{Reason: "no objects found during recovery scan"}
	}

	entries := make([]types.XRefEntry, maxNum+1)
	entrySet := make([]bool, maxNum+1)
	for num, off := range offsets {
		gen := headerGeneration(data, off)
		entries[num] = types.XRefEntry{Kind: types.EntryUncompressed, Offset: off, Gen: gen}
		entrySet[num] = true
	}
	x.entries = entries

	trailer, trailerRef := x.recoverTrailer(data, offsets, maxNum, &entrySet)
	if trailer == nil {
		return &InvalidPDFError{Reason: "no trailer or catalog found during recovery scan"}
	}
	x.trailer = trailer
	x.trailerRef = trailerRef
	x.repairEntryZero(entrySet)
	return nil
}

func readWhole(src ByteSource, size int64) ([]byte, error) {
	buf := make([]byte, size)
	n, err := src.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

// scanObjectMarkers finds every "N G obj" header in data by looking for
// the literal " obj" substring and walking back to the start of its
// line, the same heuristic as rebuildXrefFromObjects. A later match for
// the same object number overwrites an earlier one: a later byte offset
// means a later incremental update, which recovery should prefer (the
// reference implementation this is grounded on keeps the first match
// instead, which is backwards for multi-revision files).
func scanObjectMarkers(data []byte) (map[uint32]int64, uint32) {
	offsets := make(map[uint32]int64)
	var maxNum uint32
	marker := []byte(" obj")
	search := 0
	for {
		idx := bytes.Index(data[search:], marker)
		if idx < 0 {
			break
		}
		pos := search + idx
		search = pos + len(marker)

		lineStart := pos
		for lineStart > 0 && data[lineStart-1] != '\n' && data[lineStart-1] != '\r' {
			lineStart--
		}
		fields := strings.Fields(string(data[lineStart:pos]))
		if len(fields) < 2 {
			continue
		}
		num, err := strconv.ParseUint(fields[len(fields)-2], 10, 32)
		if err != nil {
			continue
		}
		if _, err := strconv.ParseUint(fields[len(fields)-1], 10, 16); err != nil {
			continue
		}
		offsets[uint32(num)] = int64(lineStart)
		if uint32(num) > maxNum {
			maxNum = uint32(num)
		}
	}
	return offsets, maxNum
}

func headerGeneration(data []byte, off int64) uint16 {
	end := off + 64
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	fields := strings.Fields(string(data[off:end]))
	if len(fields) < 2 {
		return 0
	}
	gen, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return 0
	}
	return uint16(gen)
}

// trailerCandidate is a trailer-shaped dictionary found during recovery,
// either from a literal "trailer" keyword or from a cross-reference
// stream's header, tagged with its byte offset so candidates from both
// sources can be ordered together in document order.
type trailerCandidate struct {
	offset int64
	dict   types.Dict
	ref    *types.Ref
}

// recoverTrailer locates a usable trailer dictionary per spec §4.1.2's
// recovery algorithm: collect every literal "trailer" keyword and every
// object that parses as a cross-reference stream, decoding each stream
// through processXRefStream so its Type 0/1/2 entries (in particular
// the EntryCompressed mappings for ObjStm members, which no amount of
// "N G obj" marker scanning can ever recover) are merged into x.entries
// regardless of which candidate ultimately wins. Candidates are then
// walked in document order: the first one whose Root resolves to a
// Dict carrying a Pages entry, and which itself carries an ID, wins;
// failing that, the last (most recent revision's) candidate with any
// Root at all is used; failing that, a trailer is synthesized from the
// highest-numbered Catalog object found during the scan.
func (x *XRef) recoverTrailer(data []byte, offsets map[uint32]int64, maxNum uint32, entrySet *[]bool) (types.Dict, *types.Ref) {
	var candidates []trailerCandidate

	for _, off := range findTrailerKeywordOffsets(data) {
		if d, ok := readTrailerDictAt(data, off, x.refs); ok && d["Root"] != nil {
			candidates = append(candidates, trailerCandidate{offset: off, dict: d})
		}
	}

	streamOffsets := make([]int64, 0, len(offsets))
	for _, off := range offsets {
		streamOffsets = append(streamOffsets, off)
	}
	sort.Slice(streamOffsets, func(i, j int) bool { return streamOffsets[i] < streamOffsets[j] })

	for _, off := range streamOffsets {
		hdr, ref, ok := x.safeProcessXRefStreamAt(data, off, entrySet)
		if !ok || hdr["Root"] == nil {
			continue
		}
		candidates = append(candidates, trailerCandidate{offset: off, dict: hdr, ref: ref})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].offset < candidates[j].offset })

	for _, c := range candidates {
		if c.dict["ID"] == nil {
			continue
		}
		rootDict, ok := x.recoveredRootDict(c.dict["Root"], data, offsets)
		if !ok {
			continue
		}
		if _, hasPages := rootDict["Pages"]; hasPages {
			return c.dict, c.ref
		}
	}

	if len(candidates) > 0 {
		last := candidates[len(candidates)-1]
		return last.dict, last.ref
	}

	for num := maxNum; ; num-- {
		off, ok := offsets[num]
		if ok {
			b := newBuffer(NewByteSource(bytes.NewReader(data), int64(len(data))), off, x.refs)
			b.allowEOF = true
			def, ok := safeReadObject(b).(types.Objdef)
			if ok {
				if d, ok := def.Obj.(types.Dict); ok && d["Type"] == types.Name("Catalog") {
					slog.Warn("recovery: synthesizing trailer from Catalog object", slog.Int64("num", int64(num)))
					return types.Dict{"Root": def.Ptr, "Size": int64(maxNum) + 1}, def.Ptr
				}
			}
		}
		if num == 0 {
			break
		}
	}

	return nil, nil
}

// findTrailerKeywordOffsets returns the byte offset of every literal
// "trailer" keyword in data, in ascending (document) order.
func findTrailerKeywordOffsets(data []byte) []int64 {
	var offs []int64
	marker := []byte("trailer")
	search := 0
	for {
		idx := bytes.Index(data[search:], marker)
		if idx < 0 {
			break
		}
		pos := search + idx
		search = pos + len(marker)
		offs = append(offs, int64(pos))
	}
	return offs
}

// readTrailerDictAt parses the dictionary following a "trailer" keyword
// found at pos.
func readTrailerDictAt(data []byte, pos int64, refs *types.RefTable) (types.Dict, bool) {
	p := int(pos) + len("trailer")
	for p < len(data) && isSpace(data[p]) {
		p++
	}
	if p >= len(data) || data[p] != '<' {
		return nil, false
	}
	b := newBuffer(NewByteSource(bytes.NewReader(data), int64(len(data))), int64(p), refs)
	b.allowEOF = true
	d, ok := safeReadObject(b).(types.Dict)
	return d, ok
}

// safeProcessXRefStreamAt attempts to read the object at off as a
// cross-reference stream and decode its entry table via
// processXRefStream, turning any parse panic (the overwhelming common
// case, since most scanned offsets are ordinary objects, not xref
// streams) into ok == false instead of aborting the whole recovery
// scan.
func (x *XRef) safeProcessXRefStreamAt(data []byte, off int64, entrySet *[]bool) (hdr types.Dict, ref *types.Ref, ok bool) {
	defer func() {
		if recover() != nil {
			hdr, ref, ok = nil, nil, false
		}
	}()
	b := newBuffer(NewByteSource(bytes.NewReader(data), int64(len(data))), off, x.refs)
	b.allowEOF = true
	h, r, err := x.processXRefStream(b, entrySet)
	if err != nil {
		return nil, nil, false
	}
	return h, r, true
}

// recoveredRootDict resolves a trailer's Root entry directly off the
// recovery scan's offsets table, bypassing Fetch (whose entry table and
// decrypter are not yet installed during recovery).
func (x *XRef) recoveredRootDict(root types.Object, data []byte, offsets map[uint32]int64) (types.Dict, bool) {
	switch r := root.(type) {
	case types.Dict:
		return r, true
	case *types.Ref:
		off, ok := offsets[r.Num]
		if !ok {
			return nil, false
		}
		b := newBuffer(NewByteSource(bytes.NewReader(data), int64(len(data))), off, x.refs)
		b.allowEOF = true
		def, ok := safeReadObject(b).(types.Objdef)
		if !ok {
			return nil, false
		}
		d, ok := def.Obj.(types.Dict)
		return d, ok
	}
	return nil, false
}

// safeReadObject runs b.readObject, turning a parse panic into a nil
// result instead of propagating it: recovery is already fallback
// behavior, so one malformed candidate should not abort the scan.
func safeReadObject(b *buffer) (obj types.Object) {
	defer func() {
		if recover() != nil {
			obj = nil
		}
	}()
	return b.readObject()
}
