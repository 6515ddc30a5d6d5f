package session

import (
	"sync"

	"github.com/iyotee/LSFTP/errs"
	"github.com/iyotee/LSFTP/internal/metrics"
)

// ReplayWindow is a fixed-size sliding bitset replay guard indexed by
// sequence mod size, tracking the highest sequence accepted so far. It
// rejects both exact repeats and sequences too far behind the window.
type ReplayWindow struct {
	mu          sync.Mutex
	size        uint64
	bits        []uint64
	highestSeen uint64
	seenAny     bool
}

// NewReplayWindow creates a window holding size sequence slots.
func NewReplayWindow(size uint64) *ReplayWindow {
	if size == 0 {
		size = 1024
	}
	return &ReplayWindow{
		size: size,
		bits: make([]uint64, (size+63)/64),
	}
}

// Accept reports whether seq is a new, in-window sequence number, marking
// it seen as a side effect. It returns a Protocol error for a replay or an
// out-of-window (too-old) sequence.
func (w *ReplayWindow) Accept(seq uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.seenAny {
		w.seenAny = true
		w.highestSeen = seq
		w.setBit(seq)
		metrics.ReplayWindowHighWater.Set(float64(seq))
		return nil
	}

	if seq > w.highestSeen {
		// Advance the window, clearing slots that fall out of range so
		// stale bits from long ago don't falsely flag a reused index.
		for s := w.highestSeen + 1; s <= seq; s++ {
			if seq-s < w.size {
				w.clearBit(s)
			}
		}
		w.highestSeen = seq
		w.setBit(seq)
		metrics.ReplayWindowHighWater.Set(float64(seq))
		return nil
	}

	if w.highestSeen-seq >= w.size {
		metrics.ReplayDrops.WithLabelValues("too_old").Inc()
		return errs.NewProtocol("replay_too_old", "sequence number falls outside the replay window", nil)
	}
	if w.testBit(seq) {
		metrics.ReplayDrops.WithLabelValues("already_seen").Inc()
		return errs.NewProtocol("replay_detected", "sequence number already seen", nil)
	}
	w.setBit(seq)
	return nil
}

func (w *ReplayWindow) index(seq uint64) uint64 { return seq % w.size }

func (w *ReplayWindow) setBit(seq uint64) {
	i := w.index(seq)
	w.bits[i/64] |= 1 << (i % 64)
}

func (w *ReplayWindow) clearBit(seq uint64) {
	i := w.index(seq)
	w.bits[i/64] &^= 1 << (i % 64)
}

func (w *ReplayWindow) testBit(seq uint64) bool {
	i := w.index(seq)
	return w.bits[i/64]&(1<<(i%64)) != 0
}
