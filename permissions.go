package pdf

// Permissions is the decoded /Encrypt /P bitfield, one bool per
// user-access permission ISO 32000 Table 22 defines. Grounded directly
// in spec §4.6; no example repo in the pack decodes PDF permission
// bits.
type Permissions struct {
	Print                   bool // bit 3
	Modify                  bool // bit 4
	Copy                    bool // bit 5
	Annotate                bool // bit 6 (and fill forms, revision 2)
	FillForms               bool // bit 9
	ExtractForAccessibility bool // bit 10
	Assemble                bool // bit 11
	PrintHighRes            bool // bit 12

	Raw uint32
}

const (
	permPrint                   = 1 << 2
	permModify                  = 1 << 3
	permCopy                    = 1 << 4
	permAnnotate                = 1 << 5
	permFillForms               = 1 << 8
	permExtractForAccessibility = 1 << 9
	permAssemble                = 1 << 10
	permPrintHighRes            = 1 << 11
)

// Permissions returns the document's decoded permission flags, or nil
// if /Encrypt is absent or its /P entry is not numeric (spec §4.6's
// "Returns Null").
func (c *Catalog) Permissions() *Permissions {
	v := c.memo("permissions", func() any { return c.computePermissions() })
	p, _ := v.(*Permissions)
	return p
}

func (c *Catalog) computePermissions() any {
	enc, ok := c.x.Trailer().Lookup("Encrypt")
	if !ok {
		return nil
	}
	p := enc.Key("P")
	if p.Kind() != IntegerKind {
		return nil
	}

	// P is a signed 32-bit integer; normalize to an unsigned bitfield
	// by adding 2^32 and masking to 32 bits, which for a value already
	// in the signed-32-bit range is exactly what the uint32 conversion
	// below does via two's-complement truncation.
	flags := uint32(p.Int64())

	return &Permissions{
		Print:                   flags&permPrint != 0,
		Modify:                  flags&permModify != 0,
		Copy:                    flags&permCopy != 0,
		Annotate:                flags&permAnnotate != 0,
		FillForms:               flags&permFillForms != 0,
		ExtractForAccessibility: flags&permExtractForAccessibility != 0,
		Assemble:                flags&permAssemble != 0,
		PrintHighRes:            flags&permPrintHighRes != 0,
		Raw:                     flags,
	}
}
