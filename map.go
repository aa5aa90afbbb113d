package hmap

import (
	"fmt"
	"math"

	"github.com/hashicorp/go-multierror"

	"github.com/wowczarek/hmap/internal/shared"
	"github.com/wowczarek/hmap/internal/space"
)

// Entry is a snapshot of a stored key-value pair, returned by Put. It is
// a plain copy, not a live pointer into the table: unlike the bucket
// pointer the C original hands back, an Entry stays valid forever and is
// never invalidated by a later mutating call, because there is nothing
// left to invalidate.
type Entry struct {
	Key   uint32
	Value int32
}

// Map holds two Spaces -- current and previous -- plus the migration
// cursor and load-factor thresholds that decide when to grow or shrink.
// The zero Map is not usable; construct one with New, NewWithLog2Size,
// NewWithSize or NewCustom.
type Map struct {
	spaces  [2]space.Space
	current uint8

	count uint32

	minLog2Size uint8
	growLoad    float64
	shrinkLoad  float64
	offsetMult  uint32
	batchSize   uint32

	toMigrate  uint32
	migratePos uint32

	growCount   uint32
	shrinkCount uint32
}

// New creates a ready to use Map with default settings: minLog2Size 5,
// growLoad 0.7, shrinkLoad 0.25, offsetMult 1, batchSize 4.
func New() *Map {
	m, err := NewCustom(shared.MinLog2Size, shared.DefaultGrowLoad, shared.DefaultShrinkLoad, shared.DefaultOffsetMult, shared.DefaultBatchSize)
	if err != nil {
		// the defaults are always in range; a failure here is a bug.
		panic(err)
	}
	return m
}

// NewWithLog2Size creates a Map whose current Space starts at, and never
// shrinks below, 1<<log2size buckets. All other settings use defaults.
func NewWithLog2Size(log2size uint8) (*Map, error) {
	return NewCustom(log2size, shared.DefaultGrowLoad, shared.DefaultShrinkLoad, shared.DefaultOffsetMult, shared.DefaultBatchSize)
}

// NewWithSize sizes the Map for an expected population of minItems
// distinct keys. It picks the smallest log2size such that
// minItems < growLoad * 2^log2size, and passes that size to NewCustom as
// the minimum size -- so, per the size/floor coupling documented on
// NewCustom, a later shrink will never go below it either. The load
// trigger fires once the count reaches floor(growLoad * 2^log2size), so
// a minItems equal to that value, or a probe chain reaching the
// probe-length ceiling, still grows the table during the fill.
func NewWithSize(minItems uint32) (*Map, error) {
	capacity := uint64(math.Ceil(float64(minItems) / shared.DefaultGrowLoad))
	if capacity < uint64(1)<<shared.MinLog2Size {
		capacity = uint64(1) << shared.MinLog2Size
	}

	log2 := shared.Log2OfPowerOf2(shared.NextPowerOf2(capacity))
	if log2 > shared.MaxLog2Size {
		log2 = shared.MaxLog2Size
	}

	return NewCustom(log2, shared.DefaultGrowLoad, shared.DefaultShrinkLoad, shared.DefaultOffsetMult, shared.DefaultBatchSize)
}

// NewCustom gives full control over sizing and load factors.
//
// log2size sets both the Map's initial Space size and its minLog2Size
// floor: the table is never allocated smaller than this, and a shrink
// never reduces it further. This mirrors the source's own coupling
// between "initial size" and "minimum size" in its init helpers -- a
// grow can still trigger near a size chosen this way, since growCount is
// always clamped below the Space's full capacity.
//
// shrinkLoad is auto-clamped to at most growLoad/2 so that a grow
// immediately followed by a shrink (or vice versa) cannot thrash.
// batchSize of 0 selects synchronous migrate-all; any other value is
// clamped up to max(4, ceil(growLoad/shrinkLoad)+1), the smallest batch
// size guaranteed to drain a previous Space before the current one can
// trigger its own resize.
func NewCustom(log2size uint8, growLoad, shrinkLoad float64, offsetMult, batchSize uint32) (*Map, error) {
	var errs *multierror.Error
	if log2size < shared.MinLog2Size || log2size > shared.MaxLog2Size {
		errs = multierror.Append(errs, fmt.Errorf("log2size %d: %w", log2size, shared.ErrOutOfRange))
	}
	if growLoad <= 0.0 || growLoad >= 1.0 {
		errs = multierror.Append(errs, fmt.Errorf("growLoad %f: %w", growLoad, shared.ErrOutOfRange))
	}
	if shrinkLoad <= 0.0 || shrinkLoad >= 1.0 {
		errs = multierror.Append(errs, fmt.Errorf("shrinkLoad %f: %w", shrinkLoad, shared.ErrOutOfRange))
	}
	if offsetMult < 1 {
		errs = multierror.Append(errs, fmt.Errorf("offsetMult %d: %w", offsetMult, shared.ErrOutOfRange))
	}
	if errs.ErrorOrNil() != nil {
		return nil, errs.ErrorOrNil()
	}

	if shrinkLoad > growLoad/2 {
		shrinkLoad = growLoad / 2
	}

	if batchSize != shared.MigrateAll {
		floor := uint32(math.Ceil(growLoad/shrinkLoad)) + 1
		if floor < shared.MinBatchSize {
			floor = shared.MinBatchSize
		}
		if batchSize < floor {
			batchSize = floor
		}
	}

	m := &Map{
		minLog2Size: log2size,
		growLoad:    growLoad,
		shrinkLoad:  shrinkLoad,
		offsetMult:  offsetMult,
		batchSize:   batchSize,
	}
	m.spaces[0] = space.New(log2size, offsetMult)
	m.recomputeThresholds()

	return m, nil
}

// MustNewCustom is NewCustom but panics instead of returning an error.
func MustNewCustom(log2size uint8, growLoad, shrinkLoad float64, offsetMult, batchSize uint32) *Map {
	m, err := NewCustom(log2size, growLoad, shrinkLoad, offsetMult, batchSize)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Map) curSpace() *space.Space  { return &m.spaces[m.current] }
func (m *Map) prevSpace() *space.Space { return &m.spaces[1-m.current] }

func (m *Map) migrating() bool { return m.toMigrate > 0 }

func (m *Map) recomputeThresholds() {
	size := m.curSpace().Size()

	gc := uint32(float64(size) * m.growLoad)
	if gc > size-1 {
		gc = size - 1 // invariant: current Space must never reach full occupancy
	}
	m.growCount = gc
	m.shrinkCount = uint32(float64(size) * m.shrinkLoad)
}

// Put maps key to value. If key already exists, its stored value is left
// untouched and the returned Entry reflects the pre-existing value, with
// exists == true. Otherwise value is inserted and exists == false.
//
// While a migration is in flight, an existence check against the
// previous Space is free -- it does not advance the migration cursor.
// Any other Put advances it by one batch before inserting into the
// current Space, including a Put whose key turns out to be already
// present there.
func (m *Map) Put(key uint32, value int32) (Entry, bool) {
	if m.migrating() {
		prev := m.prevSpace()
		if b, ok := prev.Fetch(key, prev.MaxOffset()); ok {
			return Entry{Key: b.Key, Value: b.Value}, true
		}
		m.migrateBatch(m.batchSize)
	}

	cur := m.curSpace()
	b, exists := cur.Insert(key, value)
	if exists {
		return Entry{Key: b.Key, Value: b.Value}, true
	}

	m.count++

	if !m.migrating() && (cur.MaxOffset() >= cur.OffsetLimit() || m.count >= m.growCount) {
		m.grow()
	}

	return Entry{Key: b.Key, Value: b.Value}, false
}

// Get returns the value stored for key, or (0, false) if absent. It
// never advances a migration in flight; it only ever consults the
// previous Space on a miss in the current one.
func (m *Map) Get(key uint32) (int32, bool) {
	cur := m.curSpace()
	if b, ok := cur.Fetch(key, cur.MaxOffset()); ok {
		return b.Value, true
	}

	if m.toMigrate > 0 {
		prev := m.prevSpace()
		if b, ok := prev.Fetch(key, prev.MaxOffset()); ok {
			return b.Value, true
		}
	}

	return 0, false
}

// Remove deletes key from the Map, reporting whether it was present.
//
// If a migration is active and key is still resident in the previous
// Space, it is cleared there lazily (no backward shift, to keep that
// Space's probe chains intact for other in-flight lookups) and the
// migration cursor advances by one batch. Otherwise Remove falls
// through to a proper backward-shift removal on the current Space,
// which may in turn trigger a shrink.
func (m *Map) Remove(key uint32) bool {
	if m.migrating() {
		prev := m.prevSpace()
		if prev.RemoveLazy(key, prev.MaxOffset()) {
			m.count--
			m.migrateBatch(m.batchSize)
			m.maybeResizeAfterRemove()
			return true
		}
	}

	cur := m.curSpace()
	if cur.Remove(key) {
		m.count--
		m.maybeResizeAfterRemove()
		return true
	}

	return false
}

// maybeResizeAfterRemove applies the shrink trigger from §4.4. It also
// covers the case invariant §3.7 actually demands but the literal
// count<=shrinkCount trigger (gated on log2size > minLog2Size) cannot
// reach on its own: an already-minimum-sized table that just emptied
// out. Reaching count == 0 always resets both Spaces to minLog2Size
// with no allocation and no pending migration, regardless of whatever
// resize happened to be mid-flight.
func (m *Map) maybeResizeAfterRemove() {
	if m.count == 0 {
		m.resetEmpty()
		return
	}

	if !m.migrating() && m.count <= m.shrinkCount && m.curSpace().Log2Size() > m.minLog2Size {
		m.shrink()
	}
}

// Count returns the number of live entries in the Map.
func (m *Map) Count() int { return int(m.count) }

// Load returns count / current Space size.
func (m *Map) Load() float64 {
	return float64(m.count) / float64(m.curSpace().Size())
}

// Migrating reports whether a grow or shrink is currently draining the
// previous Space in the background of ordinary operations.
func (m *Map) Migrating() bool { return m.migrating() }

// CurrentLog2Size returns the size exponent of the current Space. It is
// a diagnostic accessor, useful for observing that a grow or shrink
// actually happened.
func (m *Map) CurrentLog2Size() uint8 { return m.curSpace().Log2Size() }

// SpacesAllocated reports whether the current and previous Spaces'
// bucket arrays are presently allocated.
func (m *Map) SpacesAllocated() (current, previous bool) {
	return m.curSpace().Allocated(), m.prevSpace().Allocated()
}

// Lookup is Get plus the provenance of the match: previous is true when
// the value was found in the previous Space, meaning it has not yet
// been carried over by the migration in progress.
func (m *Map) Lookup(key uint32) (value int32, ok bool, previous bool) {
	cur := m.curSpace()
	if b, found := cur.Fetch(key, cur.MaxOffset()); found {
		return b.Value, true, false
	}

	if m.toMigrate > 0 {
		prev := m.prevSpace()
		if b, found := prev.Fetch(key, prev.MaxOffset()); found {
			return b.Value, true, true
		}
	}

	return 0, false, false
}

// Free releases both Spaces and zeros all state. It is idempotent and
// safe to call on a nil Map.
func (m *Map) Free() {
	if m == nil {
		return
	}
	m.spaces[0].Free()
	m.spaces[1].Free()
	*m = Map{}
}
