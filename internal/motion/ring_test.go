package motion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/gamepad_fusion/internal/geom"
)

func collect(r *vecRing) []float64 {
	var xs []float64
	r.Do(func(v geom.Vec3) { xs = append(xs, v.X) })
	return xs
}

func TestVecRingFillsToCapacity(t *testing.T) {
	r := newVecRing(3)
	assert.Equal(t, 0, r.Len())

	r.Push(geom.Vec3{X: 1})
	r.Push(geom.Vec3{X: 2})
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []float64{2, 1}, collect(r))
}

func TestVecRingOverwritesOldest(t *testing.T) {
	r := newVecRing(3)
	for i := 1; i <= 5; i++ {
		r.Push(geom.Vec3{X: float64(i)})
	}

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []float64{5, 4, 3}, collect(r))
}

func TestVecRingReset(t *testing.T) {
	r := newVecRing(3)
	r.Push(geom.Vec3{X: 1})
	r.Push(geom.Vec3{X: 2})

	r.Reset()
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, collect(r))

	r.Push(geom.Vec3{X: 7})
	assert.Equal(t, []float64{7}, collect(r))
}
