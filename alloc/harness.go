package alloc

import (
	"cmp"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
)

// Harness is an Allocator for tests. It fails a configurable
// percentage of reservations and keeps track of every live block so
// that leaks and bad frees can be reported afterwards.
//
// A zero Harness never fails and is ready to use.
type Harness struct {
	// FailPercent is the chance, from 0 to 100, that any given Alloc
	// returns ErrNoMemory.
	FailPercent int

	// Rand is the source used to decide failures. If nil, a source
	// seeded with 1 is created on first use.
	Rand *rand.Rand

	// Logger receives reports of injected failures and misuse. If
	// nil, slog.Default is used.
	Logger *slog.Logger

	next     uint64
	live     map[uint64]Block
	problems []error

	allocs, frees, failures int
}

// NewHarness returns a Harness that fails percent percent of
// reservations using a source seeded with seed.
func NewHarness(percent int, seed uint64) *Harness {
	return &Harness{
		FailPercent: percent,
		Rand:        rand.New(rand.NewPCG(seed, seed)),
	}
}

func (h *Harness) init() {
	if h.live == nil {
		h.live = make(map[uint64]Block)
	}
	if h.Rand == nil {
		h.Rand = rand.New(rand.NewPCG(1, 1))
	}
}

func (h *Harness) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Alloc reserves a block, unless the reservation is chosen to fail,
// in which case it returns an error wrapping ErrNoMemory.
func (h *Harness) Alloc(kind Kind, size int) (Block, error) {
	h.init()

	if h.FailPercent > 0 && h.Rand.IntN(100) < h.FailPercent {
		h.failures++
		h.logger().Debug("injected allocation failure", "kind", kind, "size", size)
		return Block{}, fmt.Errorf("%v of %d bytes: %w", kind, size, ErrNoMemory)
	}

	h.next++
	b := Block{ID: h.next, Kind: kind, Size: size}
	h.live[b.ID] = b
	h.allocs++
	return b, nil
}

// Free releases b. Freeing a block that is not live is recorded as
// a problem rather than panicking.
func (h *Harness) Free(b Block) {
	h.init()

	live, ok := h.live[b.ID]
	if !ok || live != b {
		err := fmt.Errorf("free of %v block %d which is not allocated", b.Kind, b.ID)
		h.problems = append(h.problems, err)
		h.logger().Error("bad free", "kind", b.Kind, "id", b.ID)
		return
	}

	delete(h.live, b.ID)
	h.frees++
}

// Live returns the blocks that have been allocated but not freed,
// ordered by allocation.
func (h *Harness) Live() []Block {
	blocks := make([]Block, 0, len(h.live))
	for _, b := range h.live {
		blocks = append(blocks, b)
	}
	slices.SortFunc(blocks, func(b1, b2 Block) int {
		return cmp.Compare(b1.ID, b2.ID)
	})
	return blocks
}

// Problems returns every misuse the Harness has detected.
func (h *Harness) Problems() []error {
	return slices.Clone(h.problems)
}

// Stats returns the number of successful allocations, frees, and
// injected failures so far.
func (h *Harness) Stats() (allocs, frees, failures int) {
	return h.allocs, h.frees, h.failures
}
