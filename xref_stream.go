package pdf

import (
	"io"

	"github.com/go-pdf/xref/internal/types"
)

// streamResumeState checkpoints processXRefStream's progress through
// an Index subrange, mirroring tableResumeState for the stream-table
// variant of spec §4.1.2's "State checkpointing".
type streamResumeState struct {
	pairIndex int // which Index [first,n] pair we are in
	offset    int // next slot within that pair
}

// processXRefStream reads a cross-reference stream object (a "N G obj
// <<...>> stream ... endobj" whose dict has Type=XRef) and returns its
// trailer-equivalent dict. Grounded in the teacher's readXrefStream/
// readXrefStreamData, cross-checked against
// other_examples/seehuhn-go-pdf__xref.go's Index/W decoding.
func (x *XRef) processXRefStream(b *buffer, entrySet *[]bool) (types.Dict, *types.Ref, error) {
	obj, ok := b.readObject().(types.Objdef)
	if !ok {
		b.errorf("cross-reference stream not found")
	}
	strm, ok := obj.Obj.(types.Stream)
	if !ok {
		b.errorf("cross-reference stream not found: %v", objfmt(obj.Obj))
	}
	if strm.Hdr["Type"] != types.Name("XRef") {
		b.errorf("xref stream does not have type XRef")
	}
	size, ok := strm.Hdr["Size"].(int64)
	if !ok {
		b.errorf("xref stream missing /Size")
	}

	x.readXRefStreamData(strm, size, entrySet)
	x.streamState = nil

	return strm.Hdr, obj.Ptr, nil
}

func (x *XRef) readXRefStreamData(strm types.Stream, size int64, entrySet *[]bool) {
	index, _ := strm.Hdr["Index"].(types.Array)
	if index == nil {
		index = types.Array{int64(0), size}
	}
	if len(index)%2 != 0 {
		panic(formatErrorf("invalid xref stream Index array"))
	}

	ww, ok := strm.Hdr["W"].(types.Array)
	if !ok || len(ww) < 3 {
		panic(formatErrorf("xref stream missing W array"))
	}
	var w [3]int
	for i := 0; i < 3; i++ {
		n, ok := ww[i].(int64)
		if !ok {
			panic(formatErrorf("invalid xref stream W array"))
		}
		w[i] = int(n)
	}
	wtotal := w[0] + w[1] + w[2]

	v := newValue(x, strm.Ptr, strm)
	data := v.Reader()
	defer data.Close()

	buf := make([]byte, wtotal)
	for pairIdx := 0; len(index) > 0; pairIdx++ {
		start, ok1 := index[0].(int64)
		n, ok2 := index[1].(int64)
		if !ok1 || !ok2 {
			panic(formatErrorf("malformed xref stream Index pair"))
		}
		index = index[2:]

		for i := int64(0); i < n; i++ {
			x.streamState = &streamResumeState{pairIndex: pairIdx, offset: int(i)}

			if _, err := io.ReadFull(data, buf); err != nil {
				panic(formatErrorf("reading xref stream entry: %v", err))
			}
			typ := decodeBigEndian(buf[0:w[0]])
			if w[0] == 0 {
				typ = 1
			}
			f2 := decodeBigEndian(buf[w[0] : w[0]+w[1]])
			f3 := decodeBigEndian(buf[w[0]+w[1] : wtotal])

			num := int(start) + int(i)
			var e types.XRefEntry
			switch typ {
			case 0:
				e = types.XRefEntry{Kind: types.EntryFree, Gen: 65535}
			case 1:
				e = types.XRefEntry{Kind: types.EntryUncompressed, Offset: int64(f2), Gen: uint16(f3)}
			case 2:
				e = types.XRefEntry{Kind: types.EntryCompressed, ObjStmNum: uint32(f2), Index: f3}
			default:
				panic(formatErrorf("invalid xref stream entry type %d", typ))
			}
			x.setEntryFirstWriterWins(num, e, entrySet)
		}
	}
	x.streamState = nil
}

func decodeBigEndian(b []byte) int {
	x := 0
	for _, c := range b {
		x = x<<8 | int(c)
	}
	return x
}
