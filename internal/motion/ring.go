package motion

import "github.com/relabs-tech/gamepad_fusion/internal/geom"

// vecRing is a fixed-capacity ring buffer of Vec3 samples. Pushing past
// capacity overwrites the oldest entry. The fusion integrator uses it to keep
// the most recent world-frame accelerometer samples without allocating on the
// tick path.
type vecRing struct {
	data []geom.Vec3
	pos  int
	full bool
}

func newVecRing(capacity int) *vecRing {
	return &vecRing{data: make([]geom.Vec3, capacity)}
}

// Push adds a sample, overwriting the oldest once the ring is full.
func (r *vecRing) Push(v geom.Vec3) {
	r.data[r.pos] = v
	r.pos++
	if r.pos >= len(r.data) {
		r.pos = 0
		r.full = true
	}
}

// Len returns the number of samples currently held.
func (r *vecRing) Len() int {
	if r.full {
		return len(r.data)
	}
	return r.pos
}

// Do calls fn for each held sample, newest first.
func (r *vecRing) Do(fn func(geom.Vec3)) {
	n := r.Len()
	for i := 1; i <= n; i++ {
		fn(r.data[(r.pos-i+len(r.data))%len(r.data)])
	}
}

// Reset empties the ring.
func (r *vecRing) Reset() {
	r.pos = 0
	r.full = false
}
