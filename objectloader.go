package pdf

import (
	"context"

	"github.com/go-pdf/xref/internal/types"
)

// LoadSubgraph preloads enough of x's underlying chunked stream that the
// subgraph reachable from dict's named keys can be walked without further
// I/O (spec §4.11's ObjectLoader). If x's source is not a ChunkedSource, or
// has no missing chunks at all, it returns immediately.
//
// There is no teacher/example-repo counterpart for a chunked-stream
// preloader; this is grounded directly in the spec text against the
// ChunkedSource contract in bytesource.go.
func (x *XRef) LoadSubgraph(ctx context.Context, dict Value, keys []string) (err error) {
	cs, chunked := x.src.(ChunkedSource)
	if !chunked || len(cs.MissingChunks(0, cs.Size())) == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = toFetchError(r)
		}
	}()

	stack := make([]types.Object, 0, len(keys))
	for _, k := range keys {
		if raw, ok := rawDictLookup(dict, k); ok {
			stack = append(stack, raw)
		}
	}

	refSet := make(map[types.Ref]bool)

	for len(stack) > 0 {
		var pending []ByteRange
		var nodesToRevisit []types.Object

		for len(stack) > 0 {
			node := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if ptr, ok := node.(*types.Ref); ok {
				if refSet[*ptr] {
					continue
				}
				refSet[*ptr] = true

				v, err := x.Fetch(ptr, false)
				if err != nil {
					var missing *MissingDataError
					if errorsAsMissingData(err, &missing) {
						nodesToRevisit = append(nodesToRevisit, node)
						pending = append(pending, ByteRange{missing.Begin, missing.End})
						continue
					}
					return err
				}
				node = v.data
			}

			if strm, ok := node.(types.Stream); ok {
				// /Length is almost always a direct integer; the rare
				// indirect Length pointing into an unfetched range
				// surfaces as a MissingDataError here and aborts the
				// whole load rather than queueing a revisit, since
				// resolving it needs bytes LoadSubgraph has no way to
				// request without already knowing the range it names.
				length := newValue(x, strm.Ptr, strm).Key("Length").Int64()
				missing := cs.MissingChunks(strm.Offset, strm.Offset+length)
				if len(missing) > 0 {
					pending = append(pending, missing...)
					nodesToRevisit = append(nodesToRevisit, node)
				}
			}

			if mayHaveChildren(node) {
				stack = appendChildren(stack, node)
			}
		}

		if len(pending) == 0 {
			break
		}
		if err := cs.RequestRanges(ctx, pending); err != nil {
			return err
		}
		for _, n := range nodesToRevisit {
			if ptr, ok := n.(*types.Ref); ok {
				delete(refSet, *ptr)
			}
		}
		stack = nodesToRevisit
	}

	return nil
}

// mayHaveChildren reports whether v's kind can itself hold nested values
// that LoadSubgraph must descend into.
func mayHaveChildren(v types.Object) bool {
	switch v.(type) {
	case *types.Ref, types.Dict, types.Array, types.Stream:
		return true
	default:
		return false
	}
}

// appendChildren pushes v's immediate raw children onto stack: a dict's
// values, an array's elements, or a stream's dict values.
func appendChildren(stack []types.Object, v types.Object) []types.Object {
	switch t := v.(type) {
	case types.Dict:
		for _, raw := range t {
			stack = append(stack, raw)
		}
	case types.Array:
		for _, raw := range t {
			stack = append(stack, raw)
		}
	case types.Stream:
		for _, raw := range t.Hdr {
			stack = append(stack, raw)
		}
	}
	return stack
}

// rawDictLookup returns the raw (un-resolved) value of key in dict's
// underlying data without following indirect references, for seeding the
// LoadSubgraph walk at the caller-named keys.
func rawDictLookup(dict Value, key string) (types.Object, bool) {
	d, ok := dict.data.(types.Dict)
	if !ok {
		return nil, false
	}
	raw, ok := d[types.Name(key)]
	return raw, ok
}
