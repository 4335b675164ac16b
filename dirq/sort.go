package dirq

import "sort"

// sortStrings sorts lexicographically ascending in place. Bucket and
// element names are fixed-width lowercase hex, so lexicographic order
// is also time order (spec.md §4.3's iteration ordering guarantee).
func sortStrings(s []string) {
	sort.Strings(s)
}
