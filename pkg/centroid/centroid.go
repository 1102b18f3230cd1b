// Package centroid reduces a binary mask to the world-space centroids of its
// connected components.
package centroid

import (
	"gonum.org/v1/gonum/stat"

	"spanmidline/internal/models"
	"spanmidline/pkg/mask"
)

// DefaultMinVoxels is the smallest component kept when a pair extraction
// asks for large enough components.
const DefaultMinVoxels = 9

// Options controls component filtering.
type Options struct {
	// MinVoxels drops components with fewer voxels. Zero keeps everything.
	MinVoxels int
}

// Extract labels the 26-connected foreground components of m and returns
// their centroids. Components are ordered by the flat index of their first
// voxel, so the result is deterministic for a given mask.
func Extract(m *mask.Mask, opts Options) models.CentroidSet {
	nx, ny, nz := m.Dims()
	s := m.Sampling()
	labels := m.Labels()

	visited := make([]bool, len(labels))
	var centroids models.CentroidSet
	var queue []int
	var xs, ys, zs []float64

	for start, l := range labels {
		if l == 0 || visited[start] {
			continue
		}

		// flood fill one component
		queue = append(queue[:0], start)
		visited[start] = true
		xs, ys, zs = xs[:0], ys[:0], zs[:0]

		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]

			i := idx % nx
			j := (idx / nx) % ny
			k := idx / (nx * ny)

			w := s.World(i, j, k)
			xs = append(xs, w.X)
			ys = append(ys, w.Y)
			zs = append(zs, w.Z)

			for dk := -1; dk <= 1; dk++ {
				for dj := -1; dj <= 1; dj++ {
					for di := -1; di <= 1; di++ {
						ii, jj, kk := i+di, j+dj, k+dk
						if ii < 0 || jj < 0 || kk < 0 || ii >= nx || jj >= ny || kk >= nz {
							continue
						}
						n := ii + nx*(jj+ny*kk)
						if labels[n] != 0 && !visited[n] {
							visited[n] = true
							queue = append(queue, n)
						}
					}
				}
			}
		}

		if len(xs) < opts.MinVoxels {
			continue
		}
		centroids = append(centroids, models.Point3D{
			X: stat.Mean(xs, nil),
			Y: stat.Mean(ys, nil),
			Z: stat.Mean(zs, nil),
		})
	}

	return centroids
}

// ExtractPair extracts centroids from the intersection of a and b. With
// requireLargeEnough set, components smaller than minVoxels are dropped.
func ExtractPair(a, b *mask.Mask, requireLargeEnough bool, minVoxels int) (models.CentroidSet, error) {
	region, err := mask.And(a, b)
	if err != nil {
		return nil, err
	}

	var opts Options
	if requireLargeEnough {
		opts.MinVoxels = minVoxels
	}
	return Extract(region, opts), nil
}
