package pdf

import "log/slog"

// ViewerPreferences is the validated subset of /ViewerPreferences spec
// §4.4 names. Unrecognized keys are dropped silently; recognized keys
// with the wrong PDF type are dropped with a warning and fall back to
// their default (for the enumerated name fields) or are simply absent
// (for PrintPageRange/NumCopies, which have no stated default).
type ViewerPreferences struct {
	HideToolbar       bool
	HideMenubar       bool
	HideWindowUI      bool
	FitWindow         bool
	CenterWindow      bool
	DisplayDocTitle   bool
	PickTrayByPDFSize bool

	NonFullScreenPageMode string
	Direction             string
	ViewArea              string
	ViewClip              string
	PrintArea             string
	PrintClip             string
	PrintScaling          string
	Duplex                string

	PrintPageRange []int64
	NumCopies      int64
}

var boxNames = []string{"MediaBox", "CropBox", "BleedBox", "TrimBox", "ArtBox"}

// ViewerPreferences returns the document's validated viewer
// preferences, or nil if /ViewerPreferences is absent or not a dict.
func (c *Catalog) ViewerPreferences() *ViewerPreferences {
	v := c.memo("viewerPreferences", func() any { return c.computeViewerPreferences() })
	vp, _ := v.(*ViewerPreferences)
	return vp
}

func (c *Catalog) computeViewerPreferences() any {
	dict, ok := c.root.Lookup("ViewerPreferences")
	if !ok || dict.Kind() != DictKind {
		return nil
	}

	vp := &ViewerPreferences{
		NonFullScreenPageMode: "UseNone",
		Direction:             "L2R",
		ViewArea:              "CropBox",
		ViewClip:              "CropBox",
		PrintArea:             "CropBox",
		PrintClip:             "CropBox",
		PrintScaling:          "AppDefault",
		Duplex:                "None",
	}

	for key, dst := range map[string]*bool{
		"HideToolbar": &vp.HideToolbar, "HideMenubar": &vp.HideMenubar,
		"HideWindowUI": &vp.HideWindowUI, "FitWindow": &vp.FitWindow,
		"CenterWindow": &vp.CenterWindow, "DisplayDocTitle": &vp.DisplayDocTitle,
		"PickTrayByPDFSize": &vp.PickTrayByPDFSize,
	} {
		raw, ok := dict.Lookup(key)
		if !ok {
			continue
		}
		if raw.Kind() != BoolKind {
			slog.Warn("viewer preference has wrong type, dropped", slog.String("key", key))
			continue
		}
		*dst = raw.Bool()
	}

	setNameEnum(dict, "NonFullScreenPageMode", []string{"UseNone", "UseOutlines", "UseThumbs", "UseOC"}, &vp.NonFullScreenPageMode)
	setNameEnum(dict, "Direction", []string{"L2R", "R2L"}, &vp.Direction)
	setNameEnum(dict, "ViewArea", boxNames, &vp.ViewArea)
	setNameEnum(dict, "ViewClip", boxNames, &vp.ViewClip)
	setNameEnum(dict, "PrintArea", boxNames, &vp.PrintArea)
	setNameEnum(dict, "PrintClip", boxNames, &vp.PrintClip)
	setNameEnum(dict, "PrintScaling", []string{"None", "AppDefault"}, &vp.PrintScaling)
	setNameEnum(dict, "Duplex", []string{"Simplex", "DuplexFlipShortEdge", "DuplexFlipLongEdge"}, &vp.Duplex)

	if raw, ok := dict.Lookup("PrintPageRange"); ok {
		if raw.Kind() != ArrayKind {
			slog.Warn("viewer preference has wrong type, dropped", slog.String("key", "PrintPageRange"))
		} else if r := validPrintPageRange(raw, c.NumPages()); r != nil {
			vp.PrintPageRange = r
		} else {
			slog.Warn("viewer preference PrintPageRange failed validation, dropped")
		}
	}

	if raw, ok := dict.Lookup("NumCopies"); ok {
		if raw.Kind() != IntegerKind || raw.Int64() <= 0 {
			slog.Warn("viewer preference NumCopies invalid, dropped")
		} else {
			vp.NumCopies = raw.Int64()
		}
	}

	return vp
}

// setNameEnum validates a NonFullScreenPageMode-shaped field: if the
// raw value is present but not a name, or the name is unrecognized, a
// warning is logged and dst keeps its caller-supplied default — per
// spec Design Notes §9's open question, "mirror the source" and
// default even when the raw value is ill-typed.
func setNameEnum(dict Value, key string, allowed []string, dst *string) {
	raw, ok := dict.Lookup(key)
	if !ok {
		return
	}
	if raw.Kind() != NameKind {
		slog.Warn("viewer preference has wrong type, defaulted", slog.String("key", key))
		return
	}
	name := raw.Name()
	for _, a := range allowed {
		if a == name {
			*dst = name
			return
		}
	}
	slog.Warn("viewer preference has unrecognized value, defaulted", slog.String("key", key), slog.String("value", name))
}

// validPrintPageRange enforces both checks spec Design Notes §9's
// third open question calls for: the array must have even length
// *and* be non-decreasing, with every entry a positive integer no
// greater than numPages.
func validPrintPageRange(v Value, numPages int64) []int64 {
	n := v.Len()
	if n == 0 || n%2 != 0 {
		return nil
	}
	out := make([]int64, n)
	prev := int64(0)
	for i := 0; i < n; i++ {
		e := v.Index(i)
		if e.Kind() != IntegerKind {
			return nil
		}
		x := e.Int64()
		if x <= 0 || x > numPages || x < prev {
			return nil
		}
		out[i] = x
		prev = x
	}
	return out
}
