// Copyright 2014 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Reading of PDF tokens and objects from a raw byte stream.

package pdf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/xref/internal/types"
)

// token is a PDF token in the input stream, one of the following Go
// types: bool, int64, float64, string (a PDF string literal), types.Cmd
// (a keyword or delimiter), or types.Name.
type token any

// buffer holds buffered input read from a ByteSource starting at offset.
// It panics with *FormatError on malformed syntax and with
// *MissingDataError when the source has not delivered the bytes it
// needs; both panics are caught at a documented recover boundary
// (the deferred recover in Fetch, Parse and LoadSubgraph), matching the
// teacher's page.go recover() pattern.
type buffer struct {
	src         ByteSource
	buf         []byte
	pos         int
	offset      int64 // offset at end of buf, i.e. offset of next read
	tmp         []byte
	unread      []token
	allowEOF    bool
	allowObjptr bool
	allowStream bool
	eof         bool
	refs        *types.RefTable
	decrypt     decryptFunc
	objptr      *types.Ref
}

// decryptFunc decrypts a string literal belonging to the indirect object
// ptr. It is nil when the document is not encrypted or the caller has
// suppressed decryption.
type decryptFunc func(ptr *types.Ref, s string) (string, error)

func newBuffer(src ByteSource, offset int64, refs *types.RefTable) *buffer {
	return &buffer{
		src:         src,
		offset:      offset,
		buf:         make([]byte, 0, 4096),
		allowObjptr: true,
		allowStream: true,
		refs:        refs,
	}
}

func (b *buffer) errorf(format string, args ...any) {
	panic(formatErrorf(format, args...))
}

func (b *buffer) readByte() byte {
	if b.pos >= len(b.buf) {
		b.reload()
		if b.pos >= len(b.buf) {
			return '\n'
		}
	}
	c := b.buf[b.pos]
	b.pos++
	return c
}

func (b *buffer) reload() bool {
	n := cap(b.buf)
	if b.offset+int64(n) > b.src.Size() {
		n = int(b.src.Size() - b.offset)
	}
	if n <= 0 {
		b.buf = b.buf[:0]
		b.pos = 0
		if b.allowEOF {
			b.eof = true
			return false
		}
		panic(formatErrorf("unexpected end of data at offset %d", b.offset))
	}
	tmp := b.buf[:n]
	nread, err := b.src.ReadAt(tmp, b.offset)
	if nread == 0 && err != nil {
		b.buf = b.buf[:0]
		b.pos = 0
		var missing *MissingDataError
		if errors.As(err, &missing) {
			panic(missing)
		}
		if b.allowEOF && errors.Is(err, io.EOF) {
			b.eof = true
			return false
		}
		panic(formatErrorf("reading at offset %d: %v", b.offset, err))
	}
	b.offset += int64(nread)
	b.buf = tmp[:nread]
	b.pos = 0
	return true
}

func (b *buffer) seekForward(offset int64) {
	for b.offset < offset {
		if !b.reload() {
			return
		}
	}
	b.pos = len(b.buf) - int(b.offset-offset)
}

func (b *buffer) readOffset() int64 {
	return b.offset - int64(len(b.buf)) + int64(b.pos)
}

func (b *buffer) unreadByte() {
	if b.pos > 0 {
		b.pos--
	}
}

func (b *buffer) unreadToken(t token) {
	b.unread = append(b.unread, t)
}

func (b *buffer) readToken() token {
	if n := len(b.unread); n > 0 {
		t := b.unread[n-1]
		b.unread = b.unread[:n-1]
		return t
	}

	c := b.readByte()
	for {
		if isSpace(c) {
			if b.eof {
				return io.EOF
			}
			c = b.readByte()
		} else if c == '%' {
			for c != '\r' && c != '\n' {
				c = b.readByte()
			}
		} else {
			break
		}
	}

	switch c {
	case '<':
		if b.readByte() == '<' {
			return types.Cmd("<<")
		}
		b.unreadByte()
		return b.readHexString()

	case '(':
		return b.readLiteralString()

	case '[', ']', '{', '}':
		return types.Cmd(string(c))

	case '/':
		return b.readName()

	case '>':
		if b.readByte() == '>' {
			return types.Cmd(">>")
		}
		b.unreadByte()
		fallthrough

	default:
		if isDelim(c) {
			b.errorf("unexpected delimiter %#q", rune(c))
			return nil
		}
		b.unreadByte()
		return b.readKeyword()
	}
}

func (b *buffer) readHexString() token {
	tmp := b.tmp[:0]
	for {
	Loop:
		c := b.readByte()
		if c == '>' {
			break
		}
		if isSpace(c) {
			goto Loop
		}
	Loop2:
		c2 := b.readByte()
		if isSpace(c2) {
			goto Loop2
		}
		x := unhex(c)<<4 | unhex(c2)
		if x < 0 {
			b.errorf("malformed hex string %c %c", c, c2)
			break
		}
		tmp = append(tmp, byte(x))
	}
	b.tmp = tmp
	return string(tmp)
}

func unhex(b byte) int {
	switch {
	case '0' <= b && b <= '9':
		return int(b) - '0'
	case 'a' <= b && b <= 'f':
		return int(b) - 'a' + 10
	case 'A' <= b && b <= 'F':
		return int(b) - 'A' + 10
	}
	return -1
}

func (b *buffer) readLiteralString() token {
	tmp := b.tmp[:0]
	depth := 1
Loop:
	for !b.eof {
		c := b.readByte()
		switch c {
		default:
			tmp = append(tmp, c)
		case '(':
			depth++
			tmp = append(tmp, c)
		case ')':
			if depth--; depth == 0 {
				break Loop
			}
			tmp = append(tmp, c)
		case '\\':
			switch c = b.readByte(); c {
			default:
				b.errorf("invalid escape sequence \\%c", c)
				tmp = append(tmp, '\\', c)
			case 'n':
				tmp = append(tmp, '\n')
			case 'r':
				tmp = append(tmp, '\r')
			case 'b':
				tmp = append(tmp, '\b')
			case 't':
				tmp = append(tmp, '\t')
			case 'f':
				tmp = append(tmp, '\f')
			case '(', ')', '\\':
				tmp = append(tmp, c)
			case '\r':
				if b.readByte() != '\n' {
					b.unreadByte()
				}
				fallthrough
			case '\n':
				// no append
			case '0', '1', '2', '3', '4', '5', '6', '7':
				x := int(c - '0')
				for i := 0; i < 2; i++ {
					c = b.readByte()
					if c < '0' || c > '7' {
						b.unreadByte()
						break
					}
					x = x*8 + int(c-'0')
				}
				if x > 255 {
					b.errorf("invalid octal escape \\%03o", x)
				}
				tmp = append(tmp, byte(x))
			}
		}
	}
	b.tmp = tmp
	return string(tmp)
}

func (b *buffer) readName() token {
	tmp := b.tmp[:0]
	for {
		c := b.readByte()
		if isDelim(c) || isSpace(c) {
			b.unreadByte()
			break
		}
		if c == '#' {
			x := unhex(b.readByte())<<4 | unhex(b.readByte())
			if x < 0 {
				b.errorf("malformed name")
			}
			tmp = append(tmp, byte(x))
			continue
		}
		tmp = append(tmp, c)
	}
	b.tmp = tmp
	return types.Name(string(tmp))
}

func (b *buffer) readKeyword() token {
	tmp := b.tmp[:0]
	for {
		c := b.readByte()
		if isDelim(c) || isSpace(c) {
			b.unreadByte()
			break
		}
		tmp = append(tmp, c)
	}
	b.tmp = tmp
	s := string(tmp)
	switch {
	case s == "true":
		return true
	case s == "false":
		return false
	case isInteger(s):
		x, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			b.errorf("invalid integer %s", s)
		}
		return x
	case isReal(s):
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			b.errorf("invalid real %s", s)
		}
		return x
	}
	return types.Cmd(s)
}

func isInteger(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if c < '0' || '9' < c {
			return false
		}
	}
	return true
}

func isReal(s string) bool {
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if len(s) == 0 {
		return false
	}
	ndot := 0
	for _, c := range s {
		if c == '.' {
			ndot++
			continue
		}
		if c < '0' || '9' < c {
			return false
		}
	}
	return ndot == 1
}

func (b *buffer) readObject() types.Object {
	tok := b.readToken()
	if kw, ok := tok.(types.Cmd); ok {
		switch kw {
		case "null":
			return nil
		case "<<":
			return b.readDict()
		case "[":
			return b.readArray()
		}
		b.errorf("unexpected keyword %q parsing object", kw)
		return nil
	}

	if str, ok := tok.(string); ok && b.decrypt != nil && b.objptr != nil {
		dec, err := b.decrypt(b.objptr, str)
		if err != nil {
			b.errorf("failed to decrypt string: %v", err)
		}
		tok = dec
	}

	if !b.allowObjptr {
		return tok
	}

	if t1, ok := tok.(int64); ok && int64(uint32(t1)) == t1 {
		tok2 := b.readToken()
		if t2, ok := tok2.(int64); ok && int64(uint16(t2)) == t2 {
			tok3 := b.readToken()
			switch tok3 {
			case types.Cmd("R"):
				return b.refs.Intern(uint32(t1), uint16(t2))
			case types.Cmd("obj"):
				old := b.objptr
				b.objptr = b.refs.Intern(uint32(t1), uint16(t2))
				obj := b.readObject()
				if _, ok := obj.(types.Stream); !ok {
					tok4 := b.readToken()
					if tok4 != types.Cmd("endobj") {
						b.unreadToken(tok4)
					}
				}
				ptr := b.objptr
				b.objptr = old
				return types.Objdef{Ptr: ptr, Obj: obj}
			}
			b.unreadToken(tok3)
		}
		b.unreadToken(tok2)
	}
	return tok
}

func (b *buffer) readArray() types.Object {
	var x types.Array
	for {
		tok := b.readToken()
		if tok == io.EOF {
			b.errorf("stream ended with open array")
		}
		if tok == nil || tok == types.Cmd("]") {
			break
		}
		b.unreadToken(tok)
		x = append(x, b.readObject())
	}
	return x
}

func (b *buffer) readDict() types.Object {
	x := make(types.Dict)
	for {
		tok := b.readToken()
		if tok == io.EOF {
			b.errorf("stream ended with open dict")
		}
		if tok == nil || tok == types.Cmd(">>") {
			break
		}
		n, ok := tok.(types.Name)
		if !ok {
			b.errorf("unexpected non-name key %#v parsing dictionary", tok)
			continue
		}
		x[n] = b.readObject()
	}

	if !b.allowStream {
		return x
	}

	tok := b.readToken()
	if tok != types.Cmd("stream") {
		b.unreadToken(tok)
		return x
	}

	switch b.readByte() {
	case '\r':
		if b.readByte() != '\n' {
			b.unreadByte()
		}
	case '\n':
		// ok
	default:
		b.errorf("stream keyword not followed by newline")
	}

	return types.Stream{Hdr: x, Ptr: b.objptr, Offset: b.readOffset()}
}

func isSpace(b byte) bool {
	switch b {
	case '\x00', '\t', '\n', '\f', '\r', ' ':
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '<', '>', '(', ')', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func objfmt(x any) string {
	switch x := x.(type) {
	default:
		return fmt.Sprint(x)
	case string:
		return strconv.Quote(x)
	case types.Name:
		return "/" + string(x)
	case types.Cmd:
		return string(x)
	case types.Dict:
		var b strings.Builder
		b.WriteString("<<")
		first := true
		for k, v := range x {
			if !first {
				b.WriteString(" ")
			}
			first = false
			b.WriteString("/")
			b.WriteString(string(k))
			b.WriteString(" ")
			b.WriteString(objfmt(v))
		}
		b.WriteString(">>")
		return b.String()
	case types.Array:
		var b strings.Builder
		b.WriteString("[")
		for i, v := range x {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(objfmt(v))
		}
		b.WriteString("]")
		return b.String()
	case types.Stream:
		return fmt.Sprintf("%v@%d", objfmt(x.Hdr), x.Offset)
	case *types.Ref:
		return fmt.Sprintf("%d %d R", x.Num, x.Gen)
	case types.Objdef:
		return fmt.Sprintf("{%d %d obj}%v", x.Ptr.Num, x.Ptr.Gen, objfmt(x.Obj))
	}
}
