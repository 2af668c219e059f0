package library

import "math/rand/v2"

// MaxID is the largest identifier handed out.
const MaxID = 10000

// IDAllocator draws random identifiers in [1, max] that are unique within one
// collection. Ids loaded from disk must be registered with Reserve so a restart
// never mints a duplicate.
type IDAllocator struct {
	max     int
	rng     *rand.Rand
	used    map[int]struct{}
	inRange int // used ids within [1, max]
}

// NewIDAllocator returns an allocator over [1, MaxID]. A nil rng uses a
// randomly seeded source.
func NewIDAllocator(rng *rand.Rand) *IDAllocator {
	return newIDAllocator(MaxID, rng)
}

func newIDAllocator(max int, rng *rand.Rand) *IDAllocator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &IDAllocator{max: max, rng: rng, used: make(map[int]struct{})}
}

// Allocate returns a fresh id and marks it used.
func (a *IDAllocator) Allocate() (int, error) {
	if a.inRange >= a.max {
		return 0, ErrIDSpaceExhausted
	}
	for {
		id := a.rng.IntN(a.max) + 1
		if !a.InUse(id) {
			a.Reserve(id)
			return id, nil
		}
	}
}

// Reserve marks an existing id as used. Ids outside the range are remembered
// but do not count against it.
func (a *IDAllocator) Reserve(id int) {
	if a.InUse(id) {
		return
	}
	a.used[id] = struct{}{}
	if id >= 1 && id <= a.max {
		a.inRange++
	}
}

// InUse reports whether id has been allocated or reserved.
func (a *IDAllocator) InUse(id int) bool {
	_, ok := a.used[id]
	return ok
}
