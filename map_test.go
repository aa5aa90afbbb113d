package hmap_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wowczarek/hmap"
)

func init() {
	rand.Seed(time.Now().UnixNano())
}

// hindexRef mirrors the Fibonacci-mix index function from internal/space
// so tests can craft keys that deliberately collide on a given table
// size, without reaching into the unexported implementation.
func hindexRef(key, shift, mask uint32) uint32 {
	h := key ^ (key >> shift)
	h *= 2654435769
	return (h >> shift) & mask
}

func TestSequentialInsertTriggersGrow(t *testing.T) {
	m := hmap.New()

	for k := uint32(0); k < 1000; k++ {
		_, exists := m.Put(k, int32(k)+1)
		assert.False(t, exists)
	}

	for k := uint32(0); k < 1000; k++ {
		v, ok := m.Get(k)
		assert.True(t, ok)
		assert.Equal(t, int32(k)+1, v)
	}

	assert.Equal(t, 1000, m.Count())
	assert.Greater(t, m.CurrentLog2Size(), uint8(5))
}

func TestFillThenRemoveReverseTriggersShrink(t *testing.T) {
	m := hmap.New()

	for k := uint32(0); k < 1000; k++ {
		m.Put(k, int32(k))
	}

	grownLog2 := m.CurrentLog2Size()
	assert.Greater(t, grownLog2, uint8(5))

	for k := int64(999); k >= 0; k-- {
		removed := m.Remove(uint32(k))
		assert.True(t, removed)
		_, ok := m.Get(uint32(k))
		assert.False(t, ok)
	}

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, uint8(5), m.CurrentLog2Size(), "must shrink all the way back to the floor")

	cur, prev := m.SpacesAllocated()
	assert.False(t, cur)
	assert.False(t, prev)
}

func TestCollisionTortureForcesGrowBeforeFull(t *testing.T) {
	// minLog2Size 5, growLoad 0.9, offsetMult 1: grow is driven almost
	// entirely by the probe-length ceiling rather than the load factor.
	m, err := hmap.NewCustom(5, 0.9, 0.2, 1, 4)
	assert.NoError(t, err)

	const size = 32
	const shift = 32 - 5
	const mask = size - 1

	var colliding []uint32
	for key := uint32(1); len(colliding) < 20; key++ {
		if hindexRef(key, shift, mask) == 0 {
			colliding = append(colliding, key)
		}
	}

	for _, k := range colliding {
		m.Put(k, int32(k))
	}

	assert.Greater(t, m.CurrentLog2Size(), uint8(5),
		"a run of same-home keys must force a grow via the probe ceiling")

	for _, k := range colliding {
		v, ok := m.Get(k)
		assert.True(t, ok)
		assert.Equal(t, int32(k), v)
	}
}

func TestMidMigrationReadsSeeBothSpaces(t *testing.T) {
	m, err := hmap.NewCustom(5, 0.6, 0.2, 1, 4)
	assert.NoError(t, err)

	const n = 200
	for k := uint32(0); k < n; k++ {
		m.Put(k, int32(k)*2)
	}
	if !m.Migrating() {
		t.Skip("migration already drained by the time the insert loop finished")
	}

	fromPrevious := 0
	for k := uint32(0); k < n; k++ {
		v, ok, previous := m.Lookup(k)
		assert.True(t, ok, "key %d must be found somewhere during migration", k)
		assert.Equal(t, int32(k)*2, v)
		if previous {
			fromPrevious++
		}
	}

	assert.Greater(t, fromPrevious, 0, "test is only meaningful if some reads actually hit the previous space")
}

func TestMidMigrationPutOfExistingKeyDoesNotUpdate(t *testing.T) {
	m, err := hmap.NewCustom(5, 0.6, 0.2, 1, 4)
	assert.NoError(t, err)

	const n = 200
	for k := uint32(0); k < n; k++ {
		m.Put(k, int32(k))
	}

	var target uint32 = 0
	found := false
	for k := uint32(0); k < n; k++ {
		if _, ok, previous := m.Lookup(k); ok && previous {
			target = k
			found = true
			break
		}
	}
	if !found {
		t.Skip("migration already drained before a target could be chosen")
	}

	countBefore := m.Count()
	entry, exists := m.Put(target, int32(target)+999)
	assert.True(t, exists)
	assert.Equal(t, int32(target), entry.Value, "existing value must not change")
	assert.Equal(t, countBefore, m.Count())

	v, ok := m.Get(target)
	assert.True(t, ok)
	assert.Equal(t, int32(target), v)
}

func TestEmptyMapResizeFreesSpacesBetweenInserts(t *testing.T) {
	m := hmap.New()

	m.Put(1, 100)
	m.Remove(1)

	cur, prev := m.SpacesAllocated()
	assert.False(t, prev, "no previous space should remain once the map is empty")
	assert.False(t, cur, "the current space's bucket array must be released once the map is empty")

	m.Put(2, 200)
	v, ok := m.Get(2)
	assert.True(t, ok)
	assert.Equal(t, int32(200), v)
}

func TestCrossCheckAgainstNativeMap(t *testing.T) {
	m := hmap.New()
	oracle := make(map[uint32]int32)

	const nops = 20000
	for i := 0; i < nops; i++ {
		key := uint32(rand.Intn(2000))
		val := rand.Int31()
		op := rand.Intn(4)

		switch op {
		case 0:
			v1, ok1 := m.Get(key)
			v2, ok2 := oracle[key]
			assert.Equal(t, ok2, ok1)
			if ok1 {
				assert.Equal(t, v2, v1)
			}
		case 1, 2:
			_, wasIn := oracle[key]
			if !wasIn {
				// Put never overwrites an existing value.
				oracle[key] = val
			}
			_, exists := m.Put(key, val)
			assert.Equal(t, wasIn, exists)

			v, ok := m.Get(key)
			assert.True(t, ok)
			if !exists {
				assert.Equal(t, val, v)
			}
		case 3:
			if len(oracle) == 0 {
				break
			}
			var del uint32
			for k := range oracle {
				del = k
				break
			}
			delete(oracle, del)

			removed := m.Remove(del)
			assert.True(t, removed)
			_, ok := m.Get(del)
			assert.False(t, ok)
		}
	}

	assert.Equal(t, len(oracle), m.Count())
	for k, v := range oracle {
		got, ok := m.Get(k)
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}
}

func TestNewCustomRejectsOutOfRangeConfig(t *testing.T) {
	_, err := hmap.NewCustom(4, 0.7, 0.25, 1, 4) // log2size below the floor of 5
	assert.Error(t, err)

	_, err = hmap.NewCustom(5, 1.0, 0.25, 1, 4) // growLoad must be < 1
	assert.Error(t, err)

	_, err = hmap.NewCustom(5, 0.7, 0.25, 0, 4) // offsetMult must be >= 1
	assert.Error(t, err)
}

func TestShrinkLoadAutoClampedBelowHalfGrowLoad(t *testing.T) {
	m, err := hmap.NewCustom(5, 0.4, 0.39, 1, 0)
	assert.NoError(t, err)
	assert.NotNil(t, m)
}
