package mask

import (
	"errors"
	"fmt"
)

// ErrShapeMismatch is returned when two masks do not share a lattice.
var ErrShapeMismatch = errors.New("mask lattice shape mismatch")

// faceNeighbours is the 6-connected structuring element.
var faceNeighbours = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

func checkLattice(a, b *Mask) error {
	if !a.SameLattice(b) {
		ax, ay, az := a.Dims()
		bx, by, bz := b.Dims()
		return fmt.Errorf("%w: %dx%dx%d vs %dx%dx%d", ErrShapeMismatch, ax, ay, az, bx, by, bz)
	}
	return nil
}

// And returns a binary mask of the voxels that are foreground in both a and
// b. The result uses a's sampling.
func And(a, b *Mask) (*Mask, error) {
	if err := checkLattice(a, b); err != nil {
		return nil, err
	}

	out := a.Proto()
	for idx := range a.labels {
		if a.labels[idx] != 0 && b.labels[idx] != 0 {
			out.labels[idx] = 1
		}
	}
	return out, nil
}

// Greater keeps the voxels whose label value is strictly greater than
// threshold, preserving their labels.
func Greater(m *Mask, threshold float64) *Mask {
	out := m.Proto()
	for idx, l := range m.labels {
		if float64(l) > threshold {
			out.labels[idx] = l
		}
	}
	return out
}

// Hull closes the foreground of m by dilating radius times and eroding
// radius times with a 6-connected element. Space outside the lattice is
// background, so the closing runs on a copy padded by radius voxels on every
// side and is cropped afterwards. The result is binary and always contains
// the input foreground. A radius of zero binarizes m unchanged.
func Hull(m *Mask, radius int) *Mask {
	if radius < 0 {
		radius = 0
	}
	nx, ny, nz := m.Dims()
	px, py, pz := nx+2*radius, ny+2*radius, nz+2*radius

	fg := make([]bool, px*py*pz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if m.labels[i+nx*(j+ny*k)] != 0 {
					fg[(i+radius)+px*((j+radius)+py*(k+radius))] = true
				}
			}
		}
	}

	for r := 0; r < radius; r++ {
		fg = dilate(fg, px, py, pz)
	}
	for r := 0; r < radius; r++ {
		fg = erode(fg, px, py, pz)
	}

	out := m.Proto()
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				if fg[(i+radius)+px*((j+radius)+py*(k+radius))] {
					out.labels[i+nx*(j+ny*k)] = 1
				}
			}
		}
	}
	return out
}

func inside(i, j, k, nx, ny, nz int) bool {
	return i >= 0 && j >= 0 && k >= 0 && i < nx && j < ny && k < nz
}

func dilate(src []bool, nx, ny, nz int) []bool {
	dst := make([]bool, len(src))
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				idx := i + nx*(j+ny*k)
				if src[idx] {
					dst[idx] = true
					continue
				}
				for _, d := range faceNeighbours {
					ii, jj, kk := i+d[0], j+d[1], k+d[2]
					if inside(ii, jj, kk, nx, ny, nz) && src[ii+nx*(jj+ny*kk)] {
						dst[idx] = true
						break
					}
				}
			}
		}
	}
	return dst
}

// erode treats neighbours outside the buffer as background.
func erode(src []bool, nx, ny, nz int) []bool {
	dst := make([]bool, len(src))
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				idx := i + nx*(j+ny*k)
				if !src[idx] {
					continue
				}
				keep := true
				for _, d := range faceNeighbours {
					ii, jj, kk := i+d[0], j+d[1], k+d[2]
					if !inside(ii, jj, kk, nx, ny, nz) || !src[ii+nx*(jj+ny*kk)] {
						keep = false
						break
					}
				}
				dst[idx] = keep
			}
		}
	}
	return dst
}
