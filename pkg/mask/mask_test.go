package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// unitGrid creates a unit-spaced sampling starting at the origin
func unitGrid(t *testing.T, nx, ny, nz int) *Sampling {
	t.Helper()
	s, err := NewGridSampling(nx, ny, nz, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	require.NoError(t, err)
	return s
}

// fillMask creates a mask whose labels are given by pattern
func fillMask(s *Sampling, pattern func(i, j, k int) uint32) *Mask {
	m := New(s)
	nx, ny, nz := s.Num()
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				m.Set(i, j, k, pattern(i, j, k))
			}
		}
	}
	return m
}

func TestSamplingWorldAndNearest(t *testing.T) {
	s, err := NewGridSampling(8, 8, 8, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 0.5, Y: 0.5, Z: 2})
	require.NoError(t, err)

	w := s.World(2, 3, 4)
	assert.InDelta(t, 2.0, w.X, 1e-12)
	assert.InDelta(t, 3.5, w.Y, 1e-12)
	assert.InDelta(t, 11.0, w.Z, 1e-12)

	assert.Equal(t, Sample{I: 2, J: 3, K: 4}, s.Nearest(w))
	assert.Equal(t, Sample{I: 2, J: 3, K: 4}, s.Nearest(r3.Vec{X: 2.2, Y: 3.6, Z: 11.9}))

	// outside the lattice snaps onto the border
	assert.Equal(t, Sample{I: 0, J: 7, K: 7}, s.Nearest(r3.Vec{X: -100, Y: 100, Z: 100}))

	assert.InDelta(t, 0.5, s.VoxelVolume(), 1e-12)
	assert.Equal(t, 8, s.NumI())
}

func TestSamplingRejectsSingularAffine(t *testing.T) {
	_, err := NewGridSampling(4, 4, 4, r3.Vec{}, r3.Vec{X: 1, Y: 0, Z: 1})
	assert.Error(t, err)

	_, err = NewGridSampling(0, 4, 4, r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1})
	assert.Error(t, err)
}

func TestForegroundOutsideLattice(t *testing.T) {
	m := fillMask(unitGrid(t, 3, 3, 3), func(i, j, k int) uint32 { return 1 })
	assert.True(t, m.Foreground(0, 0, 0))
	assert.False(t, m.Foreground(-1, 0, 0))
	assert.False(t, m.Foreground(3, 0, 0))
}

func TestAndIsVoxelwiseIntersection(t *testing.T) {
	s := unitGrid(t, 5, 4, 3)
	a := fillMask(s, func(i, j, k int) uint32 { return uint32((i + j) % 3) })
	b := fillMask(s, func(i, j, k int) uint32 {
		if k != 1 {
			return 7
		}
		return 0
	})

	out, err := And(a, b)
	require.NoError(t, err)

	for k := 0; k < 3; k++ {
		for j := 0; j < 4; j++ {
			for i := 0; i < 5; i++ {
				want := a.Foreground(i, j, k) && b.Foreground(i, j, k)
				assert.Equal(t, want, out.Foreground(i, j, k), "voxel %d,%d,%d", i, j, k)
			}
		}
	}
	assert.Equal(t, uint32(1), out.MaxLabel())
}

func TestAndShapeMismatch(t *testing.T) {
	a := New(unitGrid(t, 4, 4, 4))
	b := New(unitGrid(t, 4, 4, 5))

	_, err := And(a, b)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestGreaterIsMonotone(t *testing.T) {
	m := fillMask(unitGrid(t, 6, 6, 6), func(i, j, k int) uint32 { return uint32((i*7 + j*3 + k) % 11) })

	prev := m.CountForeground() + 1
	for _, thr := range []float64{-1, 0, 0.5, 1, 2.5, 5, 9.99, 10, 100} {
		n := Greater(m, thr).CountForeground()
		assert.LessOrEqual(t, n, prev, "threshold %g", thr)
		prev = n
	}
	assert.Equal(t, 0, Greater(m, 10).CountForeground())
	assert.Equal(t, m.Count(10), Greater(m, 9.5).CountForeground())
}

func TestHullFillsCavity(t *testing.T) {
	s := unitGrid(t, 5, 5, 5)
	m := fillMask(s, func(i, j, k int) uint32 {
		inBlock := i >= 1 && i <= 3 && j >= 1 && j <= 3 && k >= 1 && k <= 3
		if inBlock && !(i == 2 && j == 2 && k == 2) {
			return 1
		}
		return 0
	})
	require.False(t, m.Foreground(2, 2, 2))

	closed := Hull(m, 1)
	assert.True(t, closed.Foreground(2, 2, 2))
	assert.Equal(t, 27, closed.CountForeground())

	for idx, l := range m.Labels() {
		if l != 0 {
			assert.NotZero(t, closed.Labels()[idx])
		}
	}

	same := Hull(m, 0)
	assert.Equal(t, m.CountForeground(), same.CountForeground())
}

func TestHullAtLatticeBorder(t *testing.T) {
	s := unitGrid(t, 5, 5, 5)

	// a block in the corner touches three faces of the lattice
	corner := fillMask(s, func(i, j, k int) uint32 {
		if i <= 2 && j <= 2 && k <= 2 {
			return 1
		}
		return 0
	})
	for _, radius := range []int{1, 2, 3} {
		assert.Equal(t, 27, Hull(corner, radius).CountForeground(), "radius %d", radius)
	}

	all := fillMask(s, func(i, j, k int) uint32 { return 1 })
	assert.Equal(t, 125, Hull(all, 2).CountForeground())
}

func TestSplitByMidPlane(t *testing.T) {
	tissue := fillMask(unitGrid(t, 10, 6, 6), func(i, j, k int) uint32 { return 1 })

	points := []r3.Vec{
		{X: 4.5, Y: 2, Z: 2}, // shift
		{X: 4.5, Y: 2, Z: 2}, // center
		{X: 0, Y: 2, Z: 2},   // left
		{X: 9, Y: 2, Z: 2},   // right
		{X: 4.5, Y: 2, Z: 5}, // superior
		{X: 4.5, Y: 2, Z: 0}, // inferior
		{X: 4.5, Y: 5, Z: 2}, // anterior
		{X: 4.5, Y: 0, Z: 2}, // posterior
	}

	hemis, err := Split(tissue, points)
	require.NoError(t, err)

	assert.Equal(t, 5*6*6, hemis.Count(LabelLeft))
	assert.Equal(t, 5*6*6, hemis.Count(LabelRight))
	assert.Equal(t, LabelLeft, hemis.Get(0, 3, 3))
	assert.Equal(t, LabelRight, hemis.Get(9, 3, 3))

	// the left label follows the left landmark, not the axis direction
	points[2], points[3] = points[3], points[2]
	flipped, err := Split(tissue, points)
	require.NoError(t, err)
	assert.Equal(t, LabelRight, flipped.Get(0, 3, 3))
	assert.Equal(t, LabelLeft, flipped.Get(9, 3, 3))
}

func TestSplitKeepsBackground(t *testing.T) {
	tissue := fillMask(unitGrid(t, 4, 4, 4), func(i, j, k int) uint32 {
		if j == 0 {
			return 0
		}
		return 3
	})
	points := []r3.Vec{
		{X: 1.5, Y: 1, Z: 1}, {X: 1.5, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}, {X: 3, Y: 1, Z: 1},
		{X: 1.5, Y: 1, Z: 3}, {X: 1.5, Y: 1, Z: 0}, {X: 1.5, Y: 3, Z: 1}, {X: 1.5, Y: 0, Z: 1},
	}

	hemis, err := Split(tissue, points)
	require.NoError(t, err)
	assert.Equal(t, 16, hemis.Count(0))
	assert.Equal(t, hemis.Count(LabelLeft), hemis.Count(LabelRight))
}

func TestSplitNeedsAllLandmarks(t *testing.T) {
	_, err := Split(New(unitGrid(t, 2, 2, 2)), make([]r3.Vec, 3))
	assert.Error(t, err)
}

func TestSplitPlaneSides(t *testing.T) {
	tissue := fillMask(unitGrid(t, 10, 6, 6), func(i, j, k int) uint32 { return 1 })
	plane := Plane{A: 4.5}

	lower := SplitPlane(tissue, plane, LowerX)
	assert.Equal(t, LabelLeft, lower.Get(0, 0, 0))
	assert.Equal(t, LabelRight, lower.Get(9, 0, 0))

	upper := SplitPlane(tissue, plane, UpperX)
	assert.Equal(t, LabelRight, upper.Get(0, 0, 0))
	assert.Equal(t, LabelLeft, upper.Get(9, 0, 0))

	assert.Equal(t, LowerX, plane.SideOf(r3.Vec{X: 4.5, Y: 3}))
	assert.Equal(t, UpperX, plane.SideOf(r3.Vec{X: 5}))
}

func TestFitMidPlaneFlatFrame(t *testing.T) {
	// every landmark on z = 2
	points := []r3.Vec{
		{X: 4.5, Y: 2, Z: 2}, {X: 4.5, Y: 2, Z: 2}, {X: 0, Y: 2, Z: 2}, {X: 9, Y: 2, Z: 2},
		{X: 4.5, Y: 2, Z: 2}, {X: 4.5, Y: 2, Z: 2}, {X: 4.5, Y: 5, Z: 2}, {X: 4.5, Y: 0, Z: 2},
	}
	_, err := FitMidPlane(points)
	assert.ErrorIs(t, err, ErrSingularPlane)

	_, err = Split(New(unitGrid(t, 10, 6, 6)), points)
	assert.ErrorIs(t, err, ErrSingularPlane)
}

func TestVolumeScalesWithVoxelSize(t *testing.T) {
	s, err := NewGridSampling(4, 4, 4, r3.Vec{}, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5})
	require.NoError(t, err)
	m := fillMask(s, func(i, j, k int) uint32 {
		if i < 2 {
			return 1
		}
		return 2
	})

	assert.InDelta(t, 32*0.125, Volume(m, 1), 1e-12)
	assert.InDelta(t, 32*0.125, Volume(m, 2), 1e-12)
	assert.Zero(t, Volume(m, 3))
}

func TestProtoIsBackground(t *testing.T) {
	m := fillMask(unitGrid(t, 3, 3, 3), func(i, j, k int) uint32 { return 1 })
	p := m.Proto()
	assert.True(t, p.Sampling().Equal(m.Sampling()))
	assert.Zero(t, p.CountForeground())
}
