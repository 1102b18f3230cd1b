package midline

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"spanmidline/pkg/mask"
)

// Hemispheres is the left/right partition of a tissue mask.
type Hemispheres struct {
	// Mask carries mask.LabelLeft and mask.LabelRight, or is all background
	// when no landmarks were available.
	Mask *mask.Mask

	// Computed is false when volumes were not measured.
	Computed bool

	Left  float64 // volume of the left label
	Right float64 // volume of the right label
	Index float64 // 2 * (Left - Right) / (Left + Right)
}

// Partition splits tissue into hemispheres along the landmark midplane. A
// shift without landmarks returns the tissue prototype without volumes.
//
// Without a scanned boundary the left landmark is meaningless, so the
// lower-x side is taken as left. Landmarks that do not span a plane fall
// back to the plane x = center.x.
func Partition(tissue *mask.Mask, s *Shift, log logrus.FieldLogger) (*Hemispheres, error) {
	if s == nil || !s.Found() {
		return &Hemispheres{Mask: tissue.Proto()}, nil
	}
	lm := s.Landmarks

	plane, err := mask.FitMidPlane(lm.Points())
	switch {
	case errors.Is(err, mask.ErrSingularPlane):
		log.WithError(err).Warn("splitting tissue at the frame center")
		plane = mask.Plane{A: lm.Center.X}
	case err != nil:
		return nil, fmt.Errorf("failed to split tissue: %w", err)
	}

	left := plane.SideOf(lm.Left)
	if s.DegenerateBoundary() {
		left = mask.LowerX
	}

	hemis := mask.SplitPlane(tissue, plane, left)
	leftVolume := mask.Volume(hemis, mask.LabelLeft)
	rightVolume := mask.Volume(hemis, mask.LabelRight)

	return &Hemispheres{
		Mask:     hemis,
		Computed: true,
		Left:     leftVolume,
		Right:    rightVolume,
		Index:    2 * (leftVolume - rightVolume) / (leftVolume + rightVolume),
	}, nil
}
