// compare.go
//
// Index comparison helpers. Repacking rewrites offsets but must keep
// the object set intact; diffing two indexes' listings makes a botched
// repack visible at a glance.

package packidx

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Listing renders one "<40-hex-id> <offset>" line per object in
// ascending id order.
func Listing(ix Index) string {
	var sb strings.Builder
	it := ix.Entries()
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		fmt.Fprintf(&sb, "%s %d\n", e.ID, e.Offset)
	}
	return sb.String()
}

// Diff reports how b's object listing differs from a's as a unified
// diff. An empty string means the listings are identical.
func Diff(aLabel, bLabel string, a, b Index) string {
	la, lb := Listing(a), Listing(b)
	edits := myers.ComputeEdits(span.URIFromPath(aLabel), la, lb)
	return fmt.Sprint(gotextdiff.ToUnified(aLabel, bLabel, la, edits))
}
