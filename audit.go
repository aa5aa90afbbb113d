package hmap

import (
	"fmt"

	"github.com/wowczarek/hmap/internal/shared"
)

// hindexFor re-derives the Fibonacci-mix home slot for key in a Space of
// the given log2size. It is a deliberate, independent re-implementation
// of the formula in internal/space rather than a call into it: the point
// of AuditInvariants is to catch a broken Space from the outside, so it
// should not trust the very code it is checking.
func hindexFor(key uint32, log2size uint8) uint32 {
	shift := 32 - uint32(log2size)
	mask := (uint32(1) << log2size) - 1
	h := key ^ (key >> shift)
	h *= shared.F32
	return (h >> shift) & mask
}

// AuditInvariants walks both Spaces and checks the structural invariants
// from §3 of the design: every live bucket sits at the slot its own key
// and offset predict, no offset exceeds the Space's tracked maximum or
// its probe-length ceiling, and the Robin Hood ordering along adjacent
// slots holds. It is meant for tests, not production call sites -- it is
// O(size) per call.
func (m *Map) AuditInvariants() error {
	for idx := range m.spaces {
		sp := &m.spaces[idx]
		if !sp.Allocated() {
			continue
		}

		if sp.MaxOffset() > sp.OffsetLimit() {
			return fmt.Errorf("space[%d]: maxOffset %d exceeds offsetLimit %d", idx, sp.MaxOffset(), sp.OffsetLimit())
		}

		size := sp.Size()
		for i := uint32(0); i < size; i++ {
			b := sp.BucketAt(i)
			if !b.InUse {
				continue
			}

			if b.Offset > sp.MaxOffset() {
				return fmt.Errorf("space[%d] slot %d: offset %d exceeds maxOffset %d", idx, i, b.Offset, sp.MaxOffset())
			}

			home := hindexFor(b.Key, sp.Log2Size())
			if (home+b.Offset)&sp.Mask() != i {
				return fmt.Errorf("space[%d] slot %d: key %d with home %d and offset %d does not land here", idx, i, b.Key, home, b.Offset)
			}

			next := sp.BucketAt((i + 1) & sp.Mask())
			if next.InUse && b.Offset > next.Offset+1 {
				return fmt.Errorf("space[%d]: robin hood ordering violated between slot %d (offset %d) and slot %d (offset %d)",
					idx, i, b.Offset, (i+1)&sp.Mask(), next.Offset)
			}
		}
	}

	return nil
}
