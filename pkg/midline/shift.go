package midline

import (
	"math"

	"spanmidline/internal/models"
	"spanmidline/pkg/mask"
)

// Shift holds the midline geometry derived from one centroid.
//
// Divisions by a zero width, maximum or mean are not trapped: the affected
// metrics become Inf or NaN. Only a missing centroid yields NA values.
type Shift struct {
	// Landmarks is nil when no centroid was found
	Landmarks *models.LandmarkList

	// IMin and IMax are the brain extent along the first lattice axis at the
	// shift point's (j,k). An empty line leaves IMin = NumI and IMax = 0.
	IMin, IMax int

	Lat     float64 // signed lateral offset shift.x - center.x
	MM      float64 // distance from shift to center
	Width   float64 // distance between the left and right boundaries
	Percent float64 // 200 * MM / Width
	Left    float64 // distance from shift to left boundary
	Right   float64 // distance from shift to right boundary
	Min     float64
	Max     float64
	Ratio   float64 // Min / Max
	Index   float64 // (Right - Left) / mean(Right, Left)
}

// Found reports whether a centroid was available.
func (s *Shift) Found() bool {
	return s.Landmarks != nil
}

// DegenerateBoundary reports whether the boundary scan found no brain
// voxels along its line.
func (s *Shift) DegenerateBoundary() bool {
	return s.Found() && s.IMin > s.IMax
}

// ComputeShift measures the lateral displacement of the first centroid
// against the landmark frame. An empty centroid set is not an error and
// gives a Shift with no landmarks.
func ComputeShift(centroids models.CentroidSet, frame models.LandmarkFrame, brain *mask.Mask) *Shift {
	if len(centroids) == 0 {
		return &Shift{}
	}

	// only the first component is used
	c := centroids[0]

	// the detected position is projected onto the canonical transverse plane
	shift := models.Point3D{X: c.X, Y: c.Y, Z: frame.ZCenter}
	center := models.Point3D{X: frame.XCenter, Y: c.Y, Z: frame.ZCenter}
	superior := models.Point3D{X: frame.XCenter, Y: c.Y, Z: frame.ZSuperior}
	inferior := models.Point3D{X: frame.XCenter, Y: c.Y, Z: frame.ZInferior}
	anterior := models.Point3D{X: frame.XCenter, Y: frame.YAnterior, Z: frame.ZCenter}
	posterior := models.Point3D{X: frame.XCenter, Y: frame.YPosterior, Z: frame.ZCenter}

	sampling := brain.Sampling()
	sample := sampling.Nearest(shift)
	iMin, iMax := scanBoundary(brain, sample.J, sample.K)

	left := sampling.World(iMin, sample.J, sample.K)
	right := sampling.World(iMax, sample.J, sample.K)

	s := &Shift{
		Landmarks: &models.LandmarkList{
			Shift:     shift,
			Center:    center,
			Left:      left,
			Right:     right,
			Superior:  superior,
			Inferior:  inferior,
			Anterior:  anterior,
			Posterior: posterior,
		},
		IMin: iMin,
		IMax: iMax,
	}

	s.Lat = shift.X - center.X
	s.MM = models.Dist(shift, center)
	s.Width = models.Dist(left, right)
	s.Percent = 200 * s.MM / s.Width
	s.Left = models.Dist(shift, left)
	s.Right = models.Dist(shift, right)
	s.Min = math.Min(s.Left, s.Right)
	s.Max = math.Max(s.Left, s.Right)
	s.Ratio = s.Min / s.Max
	mean := (s.Right + s.Left) / 2
	s.Index = (s.Right - s.Left) / mean

	return s
}

// scanBoundary walks the whole first axis at fixed (j,k). With no
// foreground on the line the range stays inverted: iMin = NumI, iMax = 0.
func scanBoundary(brain *mask.Mask, j, k int) (int, int) {
	n := brain.Sampling().NumI()
	iMin, iMax := n, 0
	for i := 0; i < n; i++ {
		if brain.Foreground(i, j, k) {
			iMin = min(iMin, i)
			iMax = max(iMax, i)
		}
	}
	return iMin, iMax
}
