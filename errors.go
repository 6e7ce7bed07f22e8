package pdf

import (
	"fmt"

	"github.com/go-pdf/xref/internal/types"
)

// MissingDataError reports that bytes in [Begin, End) have not yet been
// delivered by the byte store. It is the resumable condition threaded
// through the whole package: FetchAsync and ObjectLoader retry on it;
// every other caller propagates it.
type MissingDataError struct {
	Begin, End int64
}

func (e *MissingDataError) Error() string {
	return fmt.Sprintf("missing data in range [%d, %d)", e.Begin, e.End)
}

// XRefEntryError reports a cross-reference entry that does not match the
// object it is supposed to describe (wrong generation, entry pointing at
// the wrong object stream, malformed "N G obj" header).
type XRefEntryError struct {
	Ref *types.Ref
	Msg string
}

func (e *XRefEntryError) Error() string {
	return fmt.Sprintf("xref entry %d %d: %s", e.Ref.Num, e.Ref.Gen, e.Msg)
}

// XRefParseError reports that the cross-reference table or stream could
// not be read in normal (non-recovery) mode. Receiving one is the signal
// to retry XRef.Parse with recovery enabled.
type XRefParseError struct {
	Err error
}

func (e *XRefParseError) Error() string { return "xref parse failed: " + e.Err.Error() }
func (e *XRefParseError) Unwrap() error { return e.Err }

// FormatError reports a structural violation of the PDF object model
// that is not fatal to the whole document: the caller either substitutes
// a default or propagates it.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return "malformed PDF: " + e.Msg }

// InvalidPDFError reports that recovery-mode scanning produced no usable
// trailer; there is nothing further to try.
type InvalidPDFError struct {
	Reason string
}

func (e *InvalidPDFError) Error() string { return "invalid PDF: " + e.Reason }

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}
