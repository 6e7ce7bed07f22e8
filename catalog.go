package pdf

import (
	"io"
	"log/slog"

	"github.com/go-pdf/xref/internal/encoding"
	"github.com/go-pdf/xref/internal/types"
	"golang.org/x/text/language"
)

// Catalog wraps the document's root dictionary with the memoized
// derived views spec §4.3 names. Each view is computed at most once;
// a Format/XRefEntry error encountered while computing one is logged
// and the view falls back to its zero value, while a MissingDataError
// always propagates, per spec §7's propagation policy — mirroring
// other_examples/seehuhn-go-pdf__catalog.go's ExtractCatalog, which
// this module generalizes from a one-shot struct decode into a set of
// independently-memoized, fault-tolerant accessors.
type Catalog struct {
	x    *XRef
	root Value

	cache map[string]any

	// pageKidsCount memoizes the Count of intermediate page-tree nodes
	// seen during GetPageDict, keyed by the node's indirect reference.
	// Spec §4.8 calls this pageKidsCountCache.
	pageKidsCount map[types.Ref]int64

	// docBaseURL anchors relative URLs produced by parseDestDictionary,
	// corresponding to PdfManager.docBaseUrl in spec §6.
	docBaseURL string
}

// SetDocBaseURL sets the base URL against which link/action targets
// are resolved to absolute URLs.
func (c *Catalog) SetDocBaseURL(base string) { c.docBaseURL = base }

// NewCatalog returns a Catalog over x's document root (x.GetCatalogObj()).
func NewCatalog(x *XRef) *Catalog {
	return &Catalog{
		x:             x,
		root:          x.GetCatalogObj(),
		cache:         make(map[string]any),
		pageKidsCount: make(map[types.Ref]int64),
	}
}

// cleanup discards every memoized view and page-tree cache. Spec
// Design Notes §9: "Font, CMap, and page-kids-count caches are
// performance optimizations and must be purgeable without affecting
// correctness."
func (c *Catalog) cleanup() {
	c.cache = make(map[string]any)
	c.pageKidsCount = make(map[types.Ref]int64)
}

// memo returns the cached value for key, computing it with compute on
// first access. compute may panic with *MissingDataError (propagated
// unchanged) or *FormatError/*XRefEntryError (logged, treated as a nil
// result for this view only).
func (c *Catalog) memo(key string, compute func() any) any {
	if v, ok := c.cache[key]; ok {
		return v
	}
	v := computeView(key, compute)
	c.cache[key] = v
	return v
}

func computeView(label string, compute func() any) (result any) {
	defer func() {
		if r := recover(); r == nil {
			return
		} else if err := r; err != nil {
			switch e := err.(type) {
			case *MissingDataError:
				panic(e)
			case *FormatError:
				slog.Warn("catalog view failed", slog.String("view", label), slog.String("err", e.Error()))
				result = nil
			case *XRefEntryError:
				slog.Warn("catalog view failed", slog.String("view", label), slog.String("err", e.Error()))
				result = nil
			default:
				panic(err)
			}
		}
	}()
	return compute()
}

// Metadata returns the document's XMP metadata stream, decoded as
// UTF-8, or "" if absent or malformed.
func (c *Catalog) Metadata() string {
	v := c.memo("metadata", func() any { return c.computeMetadata() })
	s, _ := v.(string)
	return s
}

func (c *Catalog) computeMetadata() any {
	m, ok := c.root.Lookup("Metadata")
	if !ok || m.Kind() != StreamKind {
		return ""
	}
	if m.Key("Type").Name() != "Metadata" || m.Key("Subtype").Name() != "XML" {
		return ""
	}

	suppress := false
	if enc, ok := c.x.Trailer().Lookup("Encrypt"); ok {
		if ev, ok := enc.Lookup("EncryptMetadata"); ok && ev.Kind() == BoolKind && !ev.Bool() {
			suppress = true
		}
	}

	ref := m.Ref()
	if ref == nil {
		return ""
	}
	fv, err := c.x.Fetch(ref, suppress)
	if err != nil {
		panic(err)
	}
	rd := fv.Reader()
	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		return ""
	}
	return string(data)
}

// ToplevelPagesDict returns the root's /Pages dict.
func (c *Catalog) ToplevelPagesDict() Value {
	v := c.memo("toplevelPagesDict", func() any {
		p := c.root.Key("Pages")
		if p.Kind() != DictKind {
			return nil
		}
		return p
	})
	if v == nil {
		return Value{}
	}
	return v.(Value)
}

// NumPages returns the top-level pages dict's /Count.
func (c *Catalog) NumPages() int64 {
	v := c.memo("numPages", func() any { return c.ToplevelPagesDict().Key("Count").Int64() })
	n, _ := v.(int64)
	return n
}

var pageLayouts = map[string]bool{
	"SinglePage": true, "OneColumn": true, "TwoColumnLeft": true,
	"TwoColumnRight": true, "TwoPageLeft": true, "TwoPageRight": true,
}

// PageLayout returns the validated /PageLayout name, or "" (distinct
// from "SinglePage") if absent or unrecognized.
func (c *Catalog) PageLayout() string {
	v := c.memo("pageLayout", func() any {
		name := c.root.Key("PageLayout").Name()
		if pageLayouts[name] {
			return name
		}
		return ""
	})
	s, _ := v.(string)
	return s
}

var pageModes = map[string]bool{
	"UseNone": true, "UseOutlines": true, "UseThumbs": true,
	"FullScreen": true, "UseOC": true, "UseAttachments": true,
}

// PageMode returns the validated /PageMode name, defaulting to
// "UseNone".
func (c *Catalog) PageMode() string {
	v := c.memo("pageMode", func() any {
		name := c.root.Key("PageMode").Name()
		if pageModes[name] {
			return name
		}
		return "UseNone"
	})
	s, _ := v.(string)
	return s
}

// DocumentLanguage parses the root's /Lang text string via
// golang.org/x/text/language, returning language.Und if absent or
// unparseable.
func (c *Catalog) DocumentLanguage() language.Tag {
	v := c.memo("documentLanguage", func() any {
		return encoding.ParseLanguage(c.root.Key("Lang").Text())
	})
	tag, _ := v.(language.Tag)
	return tag
}

// MarkInfo reports whether the document claims to be tagged PDF
// (/MarkInfo /Marked true).
func (c *Catalog) MarkInfo() bool {
	v := c.memo("markInfo", func() any { return c.root.Key("MarkInfo").Key("Marked").Bool() })
	b, _ := v.(bool)
	return b
}

// OpenActionDestination returns the destination named by /OpenAction,
// whether it is encoded as a destination array or as a GoTo action.
func (c *Catalog) OpenActionDestination() Value {
	v := c.memo("openActionDestination", func() any {
		oa := c.root.Key("OpenAction")
		switch oa.Kind() {
		case ArrayKind:
			return oa
		case DictKind:
			var out DestResult
			applyAction(c, oa, c.docBaseURL, &out)
			return out.Dest
		}
		return nil
	})
	if v == nil {
		return Value{}
	}
	return v.(Value)
}

// Destinations merges the /Names/Dests name tree with the legacy
// /Dests dict, passing every value through fetchDestination.
func (c *Catalog) Destinations() map[string]Value {
	v := c.memo("destinations", func() any { return c.computeDestinations() })
	m, _ := v.(map[string]Value)
	return m
}

func (c *Catalog) computeDestinations() any {
	out := make(map[string]Value)

	if legacy := c.root.Key("Dests"); legacy.Kind() == DictKind {
		for _, k := range legacy.Keys() {
			out[k] = fetchDestination(legacy.Key(k))
		}
	}

	if dests, ok := c.root.Key("Names").Lookup("Dests"); ok && dests.Kind() == DictKind {
		all, err := NewNameTree(dests).GetAll()
		if err != nil {
			panic(err)
		}
		for k, v := range all {
			out[k] = fetchDestination(v)
		}
	}

	return out
}

// GetDestination looks up a single destination by name across the
// same two sources Destinations merges.
func (c *Catalog) GetDestination(id string) Value {
	if legacy := c.root.Key("Dests"); legacy.Kind() == DictKind {
		if v, ok := legacy.Lookup(id); ok {
			return fetchDestination(v)
		}
	}
	if dests, ok := c.root.Key("Names").Lookup("Dests"); ok && dests.Kind() == DictKind {
		if v, ok := NewNameTree(dests).Get(id); ok {
			return fetchDestination(v)
		}
	}
	return Value{}
}

// fetchDestination implements spec §4.3's helper of the same name: a
// dict destination entry names its target under "D"; anything else is
// already the destination.
func fetchDestination(v Value) Value {
	if v.Kind() == DictKind {
		return v.Key("D")
	}
	return v
}

// Attachments builds a FileSpec for every entry in
// /Names/EmbeddedFiles, keyed by filename.
func (c *Catalog) Attachments() map[string]*FileSpec {
	v := c.memo("attachments", func() any { return c.computeAttachments() })
	m, _ := v.(map[string]*FileSpec)
	return m
}

func (c *Catalog) computeAttachments() any {
	out := make(map[string]*FileSpec)
	ef, ok := c.root.Key("Names").Lookup("EmbeddedFiles")
	if !ok || ef.Kind() != DictKind {
		return out
	}
	all, err := NewNameTree(ef).GetAll()
	if err != nil {
		panic(err)
	}
	for _, v := range all {
		fs := ParseFileSpec(v)
		out[fs.Filename] = fs
	}
	return out
}

// JavaScript collects every /Names/JavaScript entry with S=JavaScript,
// plus the literal "print({});" if /OpenAction is a Named/Print
// action.
func (c *Catalog) JavaScript() []string {
	v := c.memo("javaScript", func() any { return c.computeJavaScript() })
	s, _ := v.([]string)
	return s
}

func (c *Catalog) computeJavaScript() any {
	var out []string
	if js, ok := c.root.Key("Names").Lookup("JavaScript"); ok && js.Kind() == DictKind {
		all, err := NewNameTree(js).GetAll()
		if err != nil {
			panic(err)
		}
		for _, v := range all {
			if v.Key("S").Name() != "JavaScript" {
				continue
			}
			code := v.Key("JS")
			if code.Kind() == StreamKind {
				rd := code.Reader()
				data, readErr := io.ReadAll(rd)
				rd.Close()
				if readErr == nil {
					out = append(out, string(data))
				}
				continue
			}
			out = append(out, code.Text())
		}
	}

	if oa := c.root.Key("OpenAction"); oa.Kind() == DictKind {
		if oa.Key("S").Name() == "Named" && oa.Key("N").Name() == "Print" {
			out = append(out, "print({});")
		}
	}
	return out
}
