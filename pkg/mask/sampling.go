// Package mask provides dense labeled voxel masks, the sampling that maps
// their lattice to world space, and the mask algebra used by the midline
// analysis (intersection, thresholding, hull closing, hemisphere split).
package mask

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sample is a lattice index.
type Sample struct {
	I, J, K int
}

// Sampling maps lattice indices (i,j,k) to world coordinates through a 4x4
// affine and back.
type Sampling struct {
	nx, ny, nz int

	affine  *mat.Dense
	inverse *mat.Dense

	// row-major copies of the top three rows, used on hot paths
	toWorld [3][4]float64
	toIndex [3][4]float64
}

// NewSampling creates a sampling of an nx*ny*nz lattice with the given
// index-to-world affine. The affine must be invertible.
func NewSampling(nx, ny, nz int, affine [4][4]float64) (*Sampling, error) {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		return nil, fmt.Errorf("invalid lattice size %dx%dx%d", nx, ny, nz)
	}

	a := mat.NewDense(4, 4, nil)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			a.Set(r, c, affine[r][c])
		}
	}

	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return nil, fmt.Errorf("sampling affine is not invertible: %w", err)
	}

	s := &Sampling{nx: nx, ny: ny, nz: nz, affine: a, inverse: &inv}
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			s.toWorld[r][c] = a.At(r, c)
			s.toIndex[r][c] = inv.At(r, c)
		}
	}
	return s, nil
}

// NewGridSampling creates an axis-aligned sampling where voxel (i,j,k) sits
// at start + (i*dx, j*dy, k*dz).
func NewGridSampling(nx, ny, nz int, start, delta r3.Vec) (*Sampling, error) {
	return NewSampling(nx, ny, nz, [4][4]float64{
		{delta.X, 0, 0, start.X},
		{0, delta.Y, 0, start.Y},
		{0, 0, delta.Z, start.Z},
		{0, 0, 0, 1},
	})
}

// Num returns the lattice size along each axis.
func (s *Sampling) Num() (int, int, int) {
	return s.nx, s.ny, s.nz
}

// NumI returns the lattice size along the first axis.
func (s *Sampling) NumI() int { return s.nx }

// NumJ returns the lattice size along the second axis.
func (s *Sampling) NumJ() int { return s.ny }

// NumK returns the lattice size along the third axis.
func (s *Sampling) NumK() int { return s.nz }

// Size is the total number of voxels.
func (s *Sampling) Size() int { return s.nx * s.ny * s.nz }

// Affine returns a copy of the index-to-world affine.
func (s *Sampling) Affine() [4][4]float64 {
	var out [4][4]float64
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = s.affine.At(r, c)
		}
	}
	return out
}

// World maps a lattice index to world coordinates. Indices outside the
// lattice are extrapolated with the same affine.
func (s *Sampling) World(i, j, k int) r3.Vec {
	return s.worldAt(float64(i), float64(j), float64(k))
}

func (s *Sampling) worldAt(i, j, k float64) r3.Vec {
	m := &s.toWorld
	return r3.Vec{
		X: m[0][0]*i + m[0][1]*j + m[0][2]*k + m[0][3],
		Y: m[1][0]*i + m[1][1]*j + m[1][2]*k + m[1][3],
		Z: m[2][0]*i + m[2][1]*j + m[2][2]*k + m[2][3],
	}
}

// Continuous maps a world point to fractional lattice coordinates.
func (s *Sampling) Continuous(p r3.Vec) r3.Vec {
	m := &s.toIndex
	return r3.Vec{
		X: m[0][0]*p.X + m[0][1]*p.Y + m[0][2]*p.Z + m[0][3],
		Y: m[1][0]*p.X + m[1][1]*p.Y + m[1][2]*p.Z + m[1][3],
		Z: m[2][0]*p.X + m[2][1]*p.Y + m[2][2]*p.Z + m[2][3],
	}
}

// Nearest snaps a world point to the closest lattice sample. Points outside
// the volume are clamped onto its border.
func (s *Sampling) Nearest(p r3.Vec) Sample {
	c := s.Continuous(p)
	return Sample{
		I: clampRound(c.X, s.nx),
		J: clampRound(c.Y, s.ny),
		K: clampRound(c.Z, s.nz),
	}
}

// Contains reports whether (i,j,k) lies inside the lattice.
func (s *Sampling) Contains(i, j, k int) bool {
	return i >= 0 && j >= 0 && k >= 0 && i < s.nx && j < s.ny && k < s.nz
}

// VoxelVolume is the world-space volume of one voxel.
func (s *Sampling) VoxelVolume() float64 {
	return math.Abs(mat.Det(s.affine.Slice(0, 3, 0, 3)))
}

// Spacing returns the world-space length of one step along each axis.
func (s *Sampling) Spacing() r3.Vec {
	m := &s.toWorld
	return r3.Vec{
		X: math.Sqrt(m[0][0]*m[0][0] + m[1][0]*m[1][0] + m[2][0]*m[2][0]),
		Y: math.Sqrt(m[0][1]*m[0][1] + m[1][1]*m[1][1] + m[2][1]*m[2][1]),
		Z: math.Sqrt(m[0][2]*m[0][2] + m[1][2]*m[1][2] + m[2][2]*m[2][2]),
	}
}

// Equal reports whether two samplings describe the same lattice and affine.
func (s *Sampling) Equal(o *Sampling) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.nx != o.nx || s.ny != o.ny || s.nz != o.nz {
		return false
	}
	return mat.EqualApprox(s.affine, o.affine, 1e-9)
}

func clampRound(v float64, n int) int {
	i := int(math.Round(v))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
