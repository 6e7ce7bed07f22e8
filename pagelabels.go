package pdf

import (
	"strconv"
	"strings"
)

// PageLabels returns one label per page index in [0, NumPages), per
// spec §4.7's PageLabels walk over the /PageLabels number tree. There
// is no teacher/example-repo counterpart for page-label rendering
// (roman numerals, base-26 letters); this is grounded directly in the
// spec text.
func (c *Catalog) PageLabels() []string {
	v := c.memo("pageLabels", func() any { return c.computePageLabels() })
	labels, _ := v.([]string)
	return labels
}

func (c *Catalog) computePageLabels() any {
	root, ok := c.root.Lookup("PageLabels")
	if !ok || root.Kind() != DictKind {
		return nil
	}
	entries, err := NewNumberTree(root).GetAll()
	if err != nil {
		panic(err)
	}

	numPages := c.NumPages()
	labels := make([]string, 0, numPages)

	var style, prefix string
	currentIndex := int64(1)

	for i := int64(0); i < numPages; i++ {
		if entry, ok := entries[i]; ok {
			style = entry.Key("S").Name()
			if p, ok := entry.Lookup("P"); ok {
				prefix = p.Text()
			} else {
				prefix = ""
			}
			if st, ok := entry.Lookup("St"); ok && st.Kind() == IntegerKind && st.Int64() >= 1 {
				currentIndex = st.Int64()
			} else {
				currentIndex = 1
			}
		}
		labels = append(labels, prefix+currentPageLabel(style, currentIndex))
		currentIndex++
	}
	return labels
}

func currentPageLabel(style string, idx int64) string {
	switch style {
	case "D":
		return strconv.FormatInt(idx, 10)
	case "R":
		return toRomanNumeral(idx)
	case "r":
		return strings.ToLower(toRomanNumeral(idx))
	case "A":
		return letterLabel(idx, 'A')
	case "a":
		return letterLabel(idx, 'a')
	default:
		return ""
	}
}

// letterLabel implements spec §4.7's base-26 letter repetition:
// letter = baseCharCode + ((idx-1) mod 26), repeated floor((idx-1)/26)+1
// times.
func letterLabel(idx int64, base byte) string {
	if idx < 1 {
		return ""
	}
	n := idx - 1
	letter := base + byte(n%26)
	repeat := int(n/26) + 1
	return strings.Repeat(string(letter), repeat)
}

var romanValues = []int64{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
var romanSymbols = []string{"M", "CM", "D", "CD", "C", "XC", "L", "XL", "X", "IX", "V", "IV", "I"}

func toRomanNumeral(n int64) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	for i, v := range romanValues {
		for n >= v {
			b.WriteString(romanSymbols[i])
			n -= v
		}
	}
	return b.String()
}
