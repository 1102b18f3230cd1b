package midline

import (
	"spanmidline/internal/models"
	"spanmidline/pkg/mask"
)

// DefaultThresholdDivisor scales the frame width into the region threshold.
// With a mouse voxel size of 0.00159387 this corresponds to more than 9
// voxels.
const DefaultThresholdDivisor = 658

// RegionParams controls SelectRegion.
type RegionParams struct {
	// ApplyThreshold keeps only voxels whose value exceeds Threshold
	ApplyThreshold bool
	Threshold      float64

	// ApplyHull closes the region with HullRadius passes (at least one)
	ApplyHull  bool
	HullRadius int
}

// RegionThreshold derives the region threshold from the frame's lateral
// extent.
func RegionThreshold(frame models.LandmarkFrame, divisor float64) float64 {
	return frame.Width() / divisor
}

// SelectRegion intersects two masks of the same lattice and optionally
// thresholds and hull-closes the result. The inputs are not modified.
func SelectRegion(a, b *mask.Mask, p RegionParams) (*mask.Mask, error) {
	region, err := mask.And(a, b)
	if err != nil {
		return nil, err
	}

	if p.ApplyThreshold {
		region = mask.Greater(region, p.Threshold)
	}

	if p.ApplyHull {
		radius := p.HullRadius
		if radius < 1 {
			radius = 1
		}
		region = mask.Hull(region, radius)
	}

	return region, nil
}
