package hmap

import (
	"fmt"
	"io"

	"github.com/wowczarek/hmap/internal/space"
)

// Dump writes a diagnostic, human-readable rendering of the Map's
// internal state to w: both Spaces' sizing, the migration cursor
// (zero when no migration is active), and every live bucket (and, if includeEmpties is set, every
// empty one too). The format is advisory and not part of any stability
// contract -- it exists for debugging, not for machine consumption.
func (m *Map) Dump(w io.Writer, includeEmpties bool) {
	if m == nil {
		fmt.Fprintln(w, "hmap: <nil>")
		return
	}

	fmt.Fprintf(w, "hmap: count=%d current=space[%d] migrating=%v toMigrate=%d migratePos=%d\n",
		m.count, m.current, m.migrating(), m.toMigrate, m.migratePos)

	for idx := range m.spaces {
		sp := &m.spaces[idx]
		role := "idle"
		if uint8(idx) == m.current {
			role = "current"
		} else if m.migrating() {
			role = "previous"
		}

		fmt.Fprintf(w, "space[%d] (%s): log2size=%d size=%d allocated=%v maxOffset=%d offsetLimit=%d\n",
			idx, role, sp.Log2Size(), sp.Size(), sp.Allocated(), sp.MaxOffset(), sp.OffsetLimit())

		if !sp.Allocated() {
			continue
		}

		sp.Each(func(i uint32, b space.Bucket) {
			switch {
			case b.InUse:
				fmt.Fprintf(w, "  [%d] key=%d value=%d offset=%d\n", i, b.Key, b.Value, b.Offset)
			case includeEmpties:
				fmt.Fprintf(w, "  [%d] <empty>\n", i)
			}
		})
	}
}
