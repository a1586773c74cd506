package match

const (
	// EngineVersion is the current version of the matching engine
	EngineVersion = "v1.0.0"

	// DefaultCompactionRatio is the deleted/total ratio above which a book purges its tombstones.
	DefaultCompactionRatio = 0.5

	// DefaultInitialCapacity is the number of order slots pre-allocated per book.
	DefaultInitialCapacity = 1024
)
