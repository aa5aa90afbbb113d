// Package space implements the single-array Robin Hood table that backs
// each half of a hmap.Map. A Space owns one contiguous bucket array sized
// to a power of two, together with the probe-length bookkeeping needed to
// bound negative lookups and to decide when growth is overdue.
//
// A Space knows nothing about migration; it only implements the table
// primitives from which the two-space engine in the parent package is
// built: Insert, Fetch and Remove.
package space

import "github.com/wowczarek/hmap/internal/shared"

// Bucket is a single slot of a Space. Offset is the probe length (DIB):
// the distance, in slots, from the bucket's home index to its actual
// slot. InUse distinguishes a live bucket from an empty one; there are
// no tombstones.
type Bucket struct {
	Key    uint32
	Value  int32
	Offset uint32
	InUse  bool
}

// Space is one power-of-two bucket array plus its probe-length ceiling
// and the running maximum probe length ever observed. The bucket array
// itself is allocated lazily, on the first Insert into an empty Space.
type Space struct {
	buckets  []Bucket
	log2size uint8
	mask     uint32
	shift    uint32

	offsetLimit uint32
	maxOffset   uint32
}

// New returns a Space sized for 1<<log2size buckets. The backing array is
// not allocated until the first Insert.
func New(log2size uint8, offsetMult uint32) Space {
	size := uint32(1) << log2size
	return Space{
		log2size:    log2size,
		mask:        size - 1,
		shift:       32 - uint32(log2size),
		offsetLimit: offsetMult * uint32(log2size),
	}
}

// hindex is the Fibonacci-mix index function: the key is XOR-folded with
// its own top bits to diffuse them into the low bits, multiplied by
// floor(2^32/phi), and the top log2size bits of the product select the
// home slot.
func hindex(key, shift, mask uint32) uint32 {
	h := key ^ (key >> shift)
	h *= shared.F32
	return (h >> shift) & mask
}

func (s *Space) home(key uint32) uint32 {
	return hindex(key, s.shift, s.mask)
}

// Log2Size returns the Space's size exponent.
func (s *Space) Log2Size() uint8 { return s.log2size }

// Size returns 1<<log2size, the bucket count.
func (s *Space) Size() uint32 { return s.mask + 1 }

// Mask returns size-1.
func (s *Space) Mask() uint32 { return s.mask }

// OffsetLimit returns the probe-length ceiling that forces a grow.
func (s *Space) OffsetLimit() uint32 { return s.offsetLimit }

// MaxOffset returns the largest probe length ever observed in this
// Space. It is monotonically non-decreasing until the Space is retired.
func (s *Space) MaxOffset() uint32 { return s.maxOffset }

// Allocated reports whether the backing bucket array has been created.
func (s *Space) Allocated() bool { return s.buckets != nil }

func (s *Space) ensureAlloc() {
	if s.buckets == nil {
		s.buckets = make([]Bucket, s.mask+1)
	}
}

// Free releases the bucket array. A freed Space keeps its sizing
// metadata (mask, shift, offsetLimit) but reports Allocated() == false.
func (s *Space) Free() {
	s.buckets = nil
}

// Insert applies the Robin Hood creed ("takes from the rich, gives to
// the poor"): it walks the probe chain from key's home slot, stealing
// the slot of any resident bucket whose offset is smaller than the
// intruder's, until an empty slot is reached. It reports the bucket the
// caller's key ended up in, which is the first slot the intruder was
// written into -- subsequent steals in the same call only ever move
// *other* keys further along the chain, never that one.
//
// If key is already present, Insert returns its existing bucket
// unmodified and exists == true.
func (s *Space) Insert(key uint32, value int32) (entry Bucket, exists bool) {
	s.ensureAlloc()

	idx := s.home(key)
	candidate := Bucket{Key: key, Value: value, Offset: 0, InUse: true}
	landedAt := -1

	for s.buckets[idx].InUse {
		if s.buckets[idx].Key == candidate.Key {
			return s.buckets[idx], true
		}

		if s.buckets[idx].Offset < candidate.Offset {
			if landedAt < 0 {
				landedAt = int(idx)
			}
			if candidate.Offset > s.maxOffset {
				s.maxOffset = candidate.Offset
			}
			s.buckets[idx], candidate = candidate, s.buckets[idx]
		}

		idx = (idx + 1) & s.mask
		candidate.Offset++
	}

	s.buckets[idx] = candidate
	if landedAt < 0 {
		landedAt = int(idx)
	}
	if candidate.Offset > s.maxOffset {
		s.maxOffset = candidate.Offset
	}

	return s.buckets[landedAt], false
}

// Fetch scans up to offsetBound+1 slots from key's home index for a live
// bucket matching key. It deliberately does not stop at the first empty
// slot: when this Space is acting as the previous Space of an
// in-progress migration, lazily-cleared buckets leave gaps that a
// plain open-addressing scan would misread as "not present".
func (s *Space) Fetch(key uint32, offsetBound uint32) (Bucket, bool) {
	if s.buckets == nil {
		return Bucket{}, false
	}

	idx := s.home(key)
	for o := uint32(0); o <= offsetBound; o++ {
		b := s.buckets[idx]
		if b.InUse && b.Key == key {
			return b, true
		}
		idx = (idx + 1) & s.mask
	}
	return Bucket{}, false
}

// Remove finds key and performs backward-shift deletion: the cleared
// slot is backfilled by walking forward and pulling each subsequent
// bucket with a positive offset one slot to the left, until an empty
// slot or a zero-offset bucket ends the chain. This is only valid on a
// Space without lazy gaps -- callers must never use it on the previous
// Space of an in-progress migration; use RemoveLazy there instead.
func (s *Space) Remove(key uint32) bool {
	if s.buckets == nil {
		return false
	}

	idx := s.home(key)
	found := -1
	for steps := uint32(0); steps <= s.offsetLimit && s.buckets[idx].InUse; steps++ {
		if s.buckets[idx].Key == key {
			found = int(idx)
			break
		}
		idx = (idx + 1) & s.mask
	}
	if found < 0 {
		return false
	}

	current := &s.buckets[found]
	current.InUse = false

	nextIdx := (uint32(found) + 1) & s.mask
	next := &s.buckets[nextIdx]
	for next.InUse && next.Offset > 0 {
		next.Offset--
		*current, *next = *next, *current
		current = next
		nextIdx = (nextIdx + 1) & s.mask
		next = &s.buckets[nextIdx]
	}

	return true
}

// RemoveLazy marks key's bucket as unused in place, without backward
// shift. It is the only removal primitive allowed on the previous Space
// while a migration is in flight: leaving the gap preserves the probe
// chains of neighboring, not-yet-migrated buckets.
func (s *Space) RemoveLazy(key uint32, offsetBound uint32) bool {
	if s.buckets == nil {
		return false
	}

	idx := s.home(key)
	for o := uint32(0); o <= offsetBound; o++ {
		if s.buckets[idx].InUse && s.buckets[idx].Key == key {
			s.buckets[idx].InUse = false
			return true
		}
		idx = (idx + 1) & s.mask
	}
	return false
}

// BucketAt returns a copy of the bucket at slot i, used by the migration
// engine to walk the previous Space in index order.
func (s *Space) BucketAt(i uint32) Bucket {
	if s.buckets == nil {
		return Bucket{}
	}
	return s.buckets[i]
}

// ClearAt marks the bucket at slot i as unused, used by the migration
// engine once a bucket's contents have been copied to the current Space.
func (s *Space) ClearAt(i uint32) {
	if s.buckets != nil {
		s.buckets[i].InUse = false
	}
}

// Each calls fn for every bucket in index order, live or not. It is used
// only by the diagnostic dump; iteration order is not part of the
// contract of Map.
func (s *Space) Each(fn func(index uint32, b Bucket)) {
	for i := range s.buckets {
		fn(uint32(i), s.buckets[i])
	}
}
