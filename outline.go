package pdf

import (
	"log/slog"

	"github.com/go-pdf/xref/internal/colorspace"
	"github.com/go-pdf/xref/internal/types"
)

// OutlineItem is one node of the document outline (bookmarks) tree.
type OutlineItem struct {
	Title string
	Color colorspace.RGB
	Count int64
	// HasCount reports whether /Count was present at all.
	HasCount bool
	Italic   bool
	Bold     bool

	Dest      Value
	URL       string
	UnsafeURL string
	NewWindow bool
	Action    string

	Items []*OutlineItem
}

// DocumentOutline returns the root outline's children, or nil if the
// document has no outline or it is empty, per spec §4.5. There is no
// teacher/example-repo counterpart for outline traversal; this is
// grounded directly in the spec text.
func (c *Catalog) DocumentOutline() []*OutlineItem {
	v := c.memo("documentOutline", func() any { return c.computeDocumentOutline() })
	items, _ := v.([]*OutlineItem)
	return items
}

func (c *Catalog) computeDocumentOutline() any {
	root, ok := c.root.Lookup("Outlines")
	if !ok || root.Kind() != DictKind {
		return nil
	}
	first := root.Key("First")
	if first.Kind() != DictKind {
		return nil
	}
	items := c.walkOutlineSiblings(first, make(map[*types.Ref]bool))
	if len(items) == 0 {
		return nil
	}
	return items
}

// walkOutlineSiblings walks the First/Next sibling chain starting at
// first, descending into each item's own First for its children. A
// single visited-ref set is shared across the whole traversal so a
// cycle anywhere in the tree — not just among direct siblings — is
// caught.
func (c *Catalog) walkOutlineSiblings(first Value, visited map[*types.Ref]bool) []*OutlineItem {
	var items []*OutlineItem
	node := first
	for node.Kind() == DictKind {
		if ref := node.Ref(); ref != nil {
			if visited[ref] {
				slog.Warn("document outline contains a cycle, stopping traversal")
				break
			}
			visited[ref] = true
		}
		items = append(items, c.parseOutlineItem(node, visited))
		node = node.Key("Next")
	}
	return items
}

func (c *Catalog) parseOutlineItem(node Value, visited map[*types.Ref]bool) *OutlineItem {
	title := node.Key("Title")
	if title.Kind() != StringKind {
		panic(formatErrorf("outline item missing required /Title"))
	}
	item := &OutlineItem{Title: title.Text(), Color: colorspace.Black}

	if c3 := node.Key("C"); c3.Kind() == ArrayKind && c3.Len() == 3 {
		var comps [3]float64
		ok := true
		for i := 0; i < 3; i++ {
			e := c3.Index(i)
			if e.Kind() != RealKind && e.Kind() != IntegerKind {
				ok = false
				break
			}
			comps[i] = e.Float64()
		}
		if ok {
			item.Color = colorspace.FromComponents(comps)
		}
	}

	if cnt, ok := node.Lookup("Count"); ok && cnt.Kind() == IntegerKind {
		item.Count = cnt.Int64()
		item.HasCount = true
	}

	if fl, ok := node.Lookup("F"); ok && fl.Kind() == IntegerKind {
		bits := fl.Int64()
		item.Italic = bits&1 != 0
		item.Bold = bits&2 != 0
	}

	var dest DestResult
	parseDestDictionary(c, node, c.docBaseURL, &dest)
	item.Dest = dest.Dest
	item.URL = dest.URL
	item.UnsafeURL = dest.UnsafeURL
	item.NewWindow = dest.NewWindow
	item.Action = dest.Action

	if kids := node.Key("First"); kids.Kind() == DictKind {
		item.Items = c.walkOutlineSiblings(kids, visited)
	}
	return item
}
