// Package shared collects the small constants and helpers shared between
// the Space and Map layers of the hmap package.
package shared

const (
	// MinLog2Size is the lowest log2size a Space may ever be initialized
	// or shrunk to.
	MinLog2Size = 5

	// MaxLog2Size is the highest log2size a Space can represent. Bucket
	// counts are tracked in uint32, so 1<<32 would overflow; 31 keeps
	// size and mask representable.
	MaxLog2Size = 31

	// DefaultGrowLoad is the fraction of a Space's size at which a grow
	// is triggered.
	DefaultGrowLoad = 0.7

	// DefaultShrinkLoad is the fraction of a Space's size below which a
	// shrink is triggered.
	DefaultShrinkLoad = 0.25

	// DefaultOffsetMult scales the probe-length ceiling: offsetLimit =
	// offsetMult * log2size.
	DefaultOffsetMult = 1

	// DefaultBatchSize is the number of buckets migrated per mutating
	// operation while a resize is in flight.
	DefaultBatchSize = 4

	// MigrateAll is a sentinel batchSize that performs the entire
	// migration synchronously as part of the resize call.
	MigrateAll = 0

	// MinBatchSize is the absolute floor a non-zero batchSize is
	// clamped to, regardless of growLoad/shrinkLoad.
	MinBatchSize = 4

	// F32 is floor(2^32 / phi), the Fibonacci hashing multiplier used by
	// the index function.
	F32 = 2654435769
)
