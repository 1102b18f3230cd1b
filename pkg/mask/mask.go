package mask

import (
	"fmt"
)

// Mask is a labeled volume over the lattice of its sampling. Label 0 is
// background. Labels are stored in a flat slice with i varying fastest.
type Mask struct {
	sampling *Sampling
	labels   []uint32
}

// New creates an all-background mask over the given sampling.
func New(s *Sampling) *Mask {
	return &Mask{
		sampling: s,
		labels:   make([]uint32, s.Size()),
	}
}

// FromLabels wraps an existing label slice. The slice is not copied.
func FromLabels(s *Sampling, labels []uint32) (*Mask, error) {
	if len(labels) != s.Size() {
		return nil, fmt.Errorf("label count %d does not match lattice size %d", len(labels), s.Size())
	}
	return &Mask{sampling: s, labels: labels}, nil
}

// Sampling returns the mask's lattice-to-world sampling.
func (m *Mask) Sampling() *Sampling { return m.sampling }

// Dims returns the lattice size along each axis.
func (m *Mask) Dims() (int, int, int) { return m.sampling.Num() }

// Labels exposes the underlying label storage.
func (m *Mask) Labels() []uint32 { return m.labels }

func (m *Mask) index(i, j, k int) int {
	return i + m.sampling.nx*(j+m.sampling.ny*k)
}

// Get returns the label at (i,j,k), or 0 outside the lattice.
func (m *Mask) Get(i, j, k int) uint32 {
	if !m.sampling.Contains(i, j, k) {
		return 0
	}
	return m.labels[m.index(i, j, k)]
}

// Set assigns a label at (i,j,k). Indices outside the lattice are ignored.
func (m *Mask) Set(i, j, k int, label uint32) {
	if !m.sampling.Contains(i, j, k) {
		return
	}
	m.labels[m.index(i, j, k)] = label
}

// Foreground reports whether (i,j,k) carries a nonzero label.
func (m *Mask) Foreground(i, j, k int) bool {
	return m.Get(i, j, k) != 0
}

// Proto returns an all-background mask on the same lattice.
func (m *Mask) Proto() *Mask {
	return New(m.sampling)
}

// Copy returns a deep copy of the mask.
func (m *Mask) Copy() *Mask {
	out := m.Proto()
	copy(out.labels, m.labels)
	return out
}

// Count returns the number of voxels carrying label.
func (m *Mask) Count(label uint32) int {
	n := 0
	for _, l := range m.labels {
		if l == label {
			n++
		}
	}
	return n
}

// CountForeground returns the number of nonzero voxels.
func (m *Mask) CountForeground() int {
	return len(m.labels) - m.Count(0)
}

// MaxLabel returns the largest label present.
func (m *Mask) MaxLabel() uint32 {
	var max uint32
	for _, l := range m.labels {
		if l > max {
			max = l
		}
	}
	return max
}

// SameLattice reports whether two masks share lattice dimensions.
func (m *Mask) SameLattice(o *Mask) bool {
	ax, ay, az := m.Dims()
	bx, by, bz := o.Dims()
	return ax == bx && ay == by && az == bz
}

// Volume returns the world-space volume covered by label.
func Volume(m *Mask, label uint32) float64 {
	return float64(m.Count(label)) * m.sampling.VoxelVolume()
}
