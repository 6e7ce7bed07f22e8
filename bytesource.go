package pdf

import (
	"context"
	"io"
	"sort"
)

// ByteRange is a half-open byte interval [Begin, End) of the underlying
// file.
type ByteRange struct {
	Begin, End int64
}

// ByteSource is the minimal synchronous byte-range reader XRef needs. A
// plain io.ReaderAt (the teacher's Reader.f) satisfies it directly via
// wholeFileSource and never raises MissingDataError.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// ChunkedSource is a ByteSource that may not have every byte resident.
// Reads that touch an unfetched region return a *MissingDataError instead
// of bytes; RequestRanges is how a caller asks for those bytes to be
// delivered.
type ChunkedSource interface {
	ByteSource
	// MissingChunks reports the sub-ranges of [begin, end) that are not
	// yet resident, in ascending order.
	MissingChunks(begin, end int64) []ByteRange
	// RequestRanges blocks until every named range is resident (or
	// returns an error from the underlying transport).
	RequestRanges(ctx context.Context, ranges []ByteRange) error
}

// wholeFileSource adapts a plain io.ReaderAt with a known size to
// ByteSource. It is never chunked: ObjectLoader treats it as fully
// loaded and XRef never sees MissingDataError from it.
type wholeFileSource struct {
	r    io.ReaderAt
	size int64
}

// NewByteSource wraps an io.ReaderAt holding the whole file in a
// ByteSource.
func NewByteSource(r io.ReaderAt, size int64) ByteSource {
	return &wholeFileSource{r: r, size: size}
}

func (s *wholeFileSource) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }
func (s *wholeFileSource) Size() int64                             { return s.size }

// MemChunkedSource is a reference ChunkedSource backed by an in-memory
// buffer with an explicit set of resident ranges. It exists so the
// MissingData/retry contract (spec §5, §4.11) can be exercised end to end
// by tests without a real network layer.
type MemChunkedSource struct {
	data     []byte
	resident []ByteRange // sorted, non-overlapping
}

// NewMemChunkedSource returns a ChunkedSource over data with the given
// ranges already resident. Pass nil for an initially-empty source.
func NewMemChunkedSource(data []byte, resident []ByteRange) *MemChunkedSource {
	s := &MemChunkedSource{data: data}
	for _, r := range resident {
		s.markResident(r.Begin, r.End)
	}
	return s
}

func (s *MemChunkedSource) Size() int64 { return int64(len(s.data)) }

func (s *MemChunkedSource) ReadAt(p []byte, off int64) (int, error) {
	end := off + int64(len(p))
	missing := s.MissingChunks(off, end)
	if len(missing) > 0 {
		return 0, &MissingDataError{Begin: missing[0].Begin, End: missing[0].End}
	}
	if off >= int64(len(s.data)) {
		return 0, io.EOF
	}
	if end > int64(len(s.data)) {
		end = int64(len(s.data))
	}
	n := copy(p, s.data[off:end])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// MissingChunks reports the portions of [begin, end) not yet resident.
func (s *MemChunkedSource) MissingChunks(begin, end int64) []ByteRange {
	if begin < 0 {
		begin = 0
	}
	if end > int64(len(s.data)) {
		end = int64(len(s.data))
	}
	var gaps []ByteRange
	cur := begin
	for _, r := range s.resident {
		if r.End <= cur {
			continue
		}
		if r.Begin >= end {
			break
		}
		if r.Begin > cur {
			gaps = append(gaps, ByteRange{cur, r.Begin})
		}
		if r.End > cur {
			cur = r.End
		}
	}
	if cur < end {
		gaps = append(gaps, ByteRange{cur, end})
	}
	return gaps
}

// RequestRanges marks every named range resident. A real transport would
// fetch the bytes first; this reference implementation already holds the
// whole backing buffer, so it only updates the residency set.
func (s *MemChunkedSource) RequestRanges(ctx context.Context, ranges []ByteRange) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	for _, r := range ranges {
		s.markResident(r.Begin, r.End)
	}
	return nil
}

func (s *MemChunkedSource) markResident(begin, end int64) {
	if begin >= end {
		return
	}
	s.resident = append(s.resident, ByteRange{begin, end})
	sort.Slice(s.resident, func(i, j int) bool { return s.resident[i].Begin < s.resident[j].Begin })
	merged := s.resident[:0]
	for _, r := range s.resident {
		if len(merged) > 0 && r.Begin <= merged[len(merged)-1].End {
			if r.End > merged[len(merged)-1].End {
				merged[len(merged)-1].End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	s.resident = merged
}
