// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pdf

import (
	"compress/zlib"
	"encoding/ascii85"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-pdf/xref/internal/types"
)

type errorReadCloser struct{ err error }

func (e *errorReadCloser) Read([]byte) (int, error) { return 0, e.err }
func (e *errorReadCloser) Close() error              { return e.err }

// Reader returns the decoded, decrypted data of the stream v. If
// v.Kind() != StreamKind, it returns a ReadCloser whose reads all fail
// with "stream not present".
func (v Value) Reader() io.ReadCloser {
	s, ok := v.data.(types.Stream)
	if !ok {
		return &errorReadCloser{fmt.Errorf("stream not present")}
	}

	length := v.Key("Length").Int64()
	rd := io.NewSectionReader(readerAtFor(v.x.src), s.Offset, length)
	dec, err := v.x.decrypter.Decrypt(s.Ptr, rd)
	if err != nil {
		panic(fmt.Errorf("bad decryption: %w", err))
	}

	filter := v.Key("Filter")
	param := v.Key("DecodeParms")
	switch filter.Kind() {
	case NullKind:
		// no filters
	case NameKind:
		dec = applyFilter(dec, filter.Name(), param)
	case ArrayKind:
		for i := 0; i < filter.Len(); i++ {
			dec = applyFilter(dec, filter.Index(i).Name(), param.Index(i))
		}
	default:
		panic(formatErrorf("unsupported Filter entry %v", filter))
	}

	if rc, ok := dec.(io.ReadCloser); ok {
		return rc
	}
	return io.NopCloser(dec)
}

// readerAtFor adapts a ByteSource to io.ReaderAt; every ByteSource
// already satisfies io.ReaderAt directly, this exists only to make the
// call site above read naturally.
func readerAtFor(src ByteSource) io.ReaderAt { return src }

func applyFilter(rd io.Reader, name string, param Value) io.Reader {
	switch name {
	case "FlateDecode":
		zr, err := zlib.NewReader(rd)
		if err != nil {
			panic(fmt.Errorf("FlateDecode: %w", err))
		}
		pred := param.Key("Predictor")
		if pred.Kind() == NullKind {
			return zr
		}
		columns := param.Key("Columns").Int64()
		if columns == 0 {
			columns = 1
		}
		switch pred.Int64() {
		case 1:
			return zr
		case 12:
			return &pngUpReader{r: zr, hist: make([]byte, 1+columns), tmp: make([]byte, 1+columns)}
		default:
			slog.Debug("unsupported PNG predictor", slog.Int64("predictor", pred.Int64()))
			panic(formatErrorf("unsupported predictor %d", pred.Int64()))
		}
	case "ASCII85Decode":
		clean := newAlphaReader(rd)
		dec := ascii85.NewDecoder(clean)
		if param.Kind() != NullKind && len(param.Keys()) > 0 {
			slog.Debug("unexpected ASCII85Decode DecodeParms", slog.Any("keys", param.Keys()))
		}
		return dec
	default:
		panic(formatErrorf("unknown filter %q", name))
	}
}

// pngUpReader undoes the PNG "Up" predictor (type 2) FlateDecode
// applies on top of before decompressing: every decompressed row is
// one tag byte followed by len(columns) data bytes, each data byte
// added to the byte directly above it in the previous row.
type pngUpReader struct {
	r    io.Reader
	hist []byte
	tmp  []byte
	pend []byte
}

func (r *pngUpReader) Read(b []byte) (int, error) {
	n := 0
	for len(b) > 0 {
		if len(r.pend) > 0 {
			m := copy(b, r.pend)
			n += m
			b = b[m:]
			r.pend = r.pend[m:]
			continue
		}
		if _, err := io.ReadFull(r.r, r.tmp); err != nil {
			return n, err
		}
		if r.tmp[0] != 2 {
			return n, fmt.Errorf("malformed PNG-Up encoding: tag byte %d", r.tmp[0])
		}
		for i, c := range r.tmp {
			r.hist[i] += c
		}
		r.pend = r.hist[1:]
	}
	return n, nil
}

// alphaReader strips whitespace (and PDF's ASCII85 end-of-data marker
// "~>") out of a raw ASCII85Decode stream before handing it to
// encoding/ascii85, which tolerates neither.
type alphaReader struct {
	r    io.Reader
	buf  [4096]byte
	pend []byte
	done bool
}

func newAlphaReader(r io.Reader) *alphaReader { return &alphaReader{r: r} }

func (a *alphaReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(a.pend) == 0 {
			if a.done {
				return n, io.EOF
			}
			m, err := a.r.Read(a.buf[:])
			if m == 0 && err != nil {
				return n, err
			}
			a.pend = a.filter(a.buf[:m])
		}
		m := copy(p[n:], a.pend)
		n += m
		a.pend = a.pend[m:]
	}
	return n, nil
}

func (a *alphaReader) filter(raw []byte) []byte {
	out := raw[:0]
	for _, c := range raw {
		switch {
		case c == '~':
			a.done = true
			return out
		case c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == '\x00':
			continue
		default:
			out = append(out, c)
		}
	}
	return out
}
