package pdf

import (
	"log/slog"

	"github.com/go-pdf/xref/internal/types"
)

// maxTreeDepth caps name/number tree descent (spec §4.2): deeper trees
// are treated as not-found rather than walked indefinitely.
const maxTreeDepth = 10

// NameTree is a read-only view of a PDF name tree: a balanced tree
// whose leaves hold key/value pairs under a "Names" array, ordered by
// PDF string key, and whose internal nodes hold a "Kids" array plus a
// "Limits" range. Grounded on
// other_examples/seehuhn-go-pdf__tree.go's sizeNode, generalized from a
// size-only walk into get/getAll.
type NameTree struct{ root Value }

// NewNameTree wraps root (normally a dict fetched from
// Catalog.Key("Names").Key("Dests") or similar) as a NameTree.
func NewNameTree(root Value) NameTree { return NameTree{root} }

// Get looks up key, descending via binary search on each node's
// Limits and, at the leaf, binary search on the even-indexed keys.
// If the leaf's keys are out of order (a corrupt file), it falls back
// to a linear scan and logs a warning.
func (t NameTree) Get(key string) (Value, bool) {
	return treeGet(t.root, "Names", newValue(t.root.x, nil, key), 0)
}

// GetAll enumerates every key/value pair in the tree breadth-first,
// deduplicating kid nodes via a visited-ref set. A repeated ref
// indicates a cycle and is reported as a format error rather than
// looped over forever.
func (t NameTree) GetAll() (map[string]Value, error) {
	out := make(map[string]Value)
	err := treeWalk(t.root, "Names", func(k, v Value) {
		out[k.RawString()] = v
	})
	return out, err
}

// Count returns the number of key/value pairs in the tree without
// materializing them.
func (t NameTree) Count() (int, error) {
	return treeCount(t.root, "Names")
}

// NumberTree is the integer-keyed counterpart of NameTree, used for
// structures such as /PageLabels whose leaf array is named "Nums".
type NumberTree struct{ root Value }

// NewNumberTree wraps root as a NumberTree.
func NewNumberTree(root Value) NumberTree { return NumberTree{root} }

// Get looks up key the same way NameTree.Get does, comparing integer
// keys instead of string keys.
func (t NumberTree) Get(key int64) (Value, bool) {
	return treeGet(t.root, "Nums", newValue(t.root.x, nil, key), 0)
}

// GetAll enumerates every key/value pair breadth-first; see
// NameTree.GetAll.
func (t NumberTree) GetAll() (map[int64]Value, error) {
	out := make(map[int64]Value)
	err := treeWalk(t.root, "Nums", func(k, v Value) {
		out[k.Int64()] = v
	})
	return out, err
}

// Count returns the number of key/value pairs in the tree.
func (t NumberTree) Count() (int, error) {
	return treeCount(t.root, "Nums")
}

func keyCompare(a, b Value) int {
	if a.Kind() == StringKind {
		as, bs := a.RawString(), b.RawString()
		switch {
		case as < bs:
			return -1
		case as > bs:
			return 1
		default:
			return 0
		}
	}
	ai, bi := a.Int64(), b.Int64()
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	default:
		return 0
	}
}

func treeGet(node Value, leafKey string, target Value, depth int) (Value, bool) {
	if depth > maxTreeDepth {
		slog.Warn("name/number tree exceeds depth cap, treating as not found", slog.Int("depth", depth))
		return Value{}, false
	}
	if limits := node.Key("Limits"); limits.Kind() == ArrayKind && limits.Len() == 2 {
		if keyCompare(target, limits.Index(0)) < 0 || keyCompare(target, limits.Index(1)) > 0 {
			return Value{}, false
		}
	}

	if kids := node.Key("Kids"); kids.Kind() == ArrayKind {
		kid, ok := binarySearchKid(kids, target)
		if !ok {
			return Value{}, false
		}
		return treeGet(kid, leafKey, target, depth+1)
	}

	leaf := node.Key(leafKey)
	if leaf.Kind() != ArrayKind {
		return Value{}, false
	}
	return leafLookup(leaf, target)
}

// binarySearchKid finds the kid whose Limits range contains target,
// per spec §4.2's "descend via binary search on Limits".
func binarySearchKid(kids Value, target Value) (Value, bool) {
	lo, hi := 0, kids.Len()-1
	for lo <= hi {
		mid := (lo + hi) / 2
		kid := kids.Index(mid)
		limits := kid.Key("Limits")
		if limits.Kind() != ArrayKind || limits.Len() != 2 {
			return Value{}, false
		}
		switch {
		case keyCompare(target, limits.Index(0)) < 0:
			hi = mid - 1
		case keyCompare(target, limits.Index(1)) > 0:
			lo = mid + 1
		default:
			return kid, true
		}
	}
	return Value{}, false
}

func leafLookup(leaf Value, target Value) (Value, bool) {
	n := leaf.Len() / 2
	lo, hi := 0, n-1
	for lo <= hi {
		mid := (lo + hi) / 2
		switch c := keyCompare(target, leaf.Index(mid*2)); {
		case c == 0:
			return leaf.Index(mid*2 + 1), true
		case c < 0:
			hi = mid - 1
		default:
			lo = mid + 1
		}
	}

	for i := 0; i < n; i++ {
		if keyCompare(target, leaf.Index(i*2)) == 0 {
			slog.Warn("name/number tree leaf out of order, fell back to linear scan")
			return leaf.Index(i*2 + 1), true
		}
	}
	return Value{}, false
}

// treeWalk enumerates every key/value pair breadth-first, calling emit
// for each. Kid nodes are deduplicated by indirect reference; a repeat
// aborts the walk with a format error instead of looping.
func treeWalk(root Value, leafKey string, emit func(key, value Value)) error {
	visited := make(map[*types.Ref]bool)
	queue := []Value{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		if ref := node.Ref(); ref != nil {
			if visited[ref] {
				return formatErrorf("name/number tree contains a cycle at object %d %d", ref.Num, ref.Gen)
			}
			visited[ref] = true
		}

		if kids := node.Key("Kids"); kids.Kind() == ArrayKind {
			for i := 0; i < kids.Len(); i++ {
				queue = append(queue, kids.Index(i))
			}
			continue
		}

		leaf := node.Key(leafKey)
		for i := 0; i+1 < leaf.Len(); i += 2 {
			emit(leaf.Index(i), leaf.Index(i+1))
		}
	}
	return nil
}

func treeCount(root Value, leafKey string) (int, error) {
	total := 0
	err := treeWalk(root, leafKey, func(k, v Value) { total++ })
	return total, err
}
