package hmap

import "github.com/wowczarek/hmap/internal/space"

// grow and shrink both start a resize; they differ only in which
// direction the new Space's log2size moves.
func (m *Map) grow()   { m.resize(1) }
func (m *Map) shrink() { m.resize(-1) }

// resize installs a new current Space and, unless the Map is empty,
// enqueues a migration of every bucket from the old current Space (now
// the previous one) into it. The new Space's bucket array is not
// allocated here; like any Space, it is allocated lazily on first
// insert.
func (m *Map) resize(dir int8) {
	cur := m.curSpace()

	newLog2 := int(cur.Log2Size()) + int(dir)
	if newLog2 < int(m.minLog2Size) {
		newLog2 = int(m.minLog2Size)
	}

	if m.count == 0 {
		m.resetEmpty()
		return
	}

	oldSize := cur.Size()
	newIdx := 1 - m.current
	m.spaces[newIdx] = space.New(uint8(newLog2), m.offsetMult)
	m.current = newIdx
	m.recomputeThresholds()

	m.toMigrate = oldSize
	m.migratePos = 0

	if m.batchSize == 0 {
		// batchSize == 0 selects synchronous migrate-all.
		m.migrateBatch(m.toMigrate)
	}
}

// resetEmpty drops both Spaces and reinitializes the current one at
// minLog2Size with no allocation and no pending migration. It is the
// only path that may return the Map to a state with zero live entries.
func (m *Map) resetEmpty() {
	m.spaces[0].Free()
	m.spaces[1].Free()
	m.toMigrate = 0
	m.migratePos = 0
	m.current = 0
	m.spaces[0] = space.New(m.minLog2Size, m.offsetMult)
	m.recomputeThresholds()
}

// migrateBatch examines up to batch buckets of the previous Space, in
// index order starting from migratePos, and moves each live one into
// the current Space; empty buckets count towards batch too. When
// toMigrate reaches zero the previous Space's bucket array is released
// and the migration cursor is cleared.
func (m *Map) migrateBatch(batch uint32) {
	if m.toMigrate == 0 {
		return
	}

	prev := m.prevSpace()
	cur := m.curSpace()

	moved := uint32(0)
	for m.toMigrate > 0 && moved < batch {
		b := prev.BucketAt(m.migratePos)
		if b.InUse {
			cur.Insert(b.Key, b.Value)
			prev.ClearAt(m.migratePos)
		}
		m.migratePos++
		m.toMigrate--
		moved++
	}

	if m.toMigrate == 0 {
		prev.Free()
		m.migratePos = 0
	}
}
