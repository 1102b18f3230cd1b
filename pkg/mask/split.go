package mask

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Hemisphere labels produced by Split.
const (
	LabelLeft  uint32 = 1
	LabelRight uint32 = 2
)

// Positions of the landmarks Split reads from its point list. The list
// order is shift, center, left, right, superior, inferior, anterior,
// posterior.
const (
	splitShift     = 0
	splitLeft      = 2
	splitSuperior  = 4
	splitInferior  = 5
	splitAnterior  = 6
	splitPosterior = 7

	splitPoints = 8
)

// ErrSingularPlane is returned when the landmarks do not determine a
// dividing plane, e.g. when the frame is flat along z or y.
var ErrSingularPlane = errors.New("landmarks do not span a dividing plane")

// Plane is the dividing surface x = A + B*y + C*z.
type Plane struct {
	A, B, C float64
}

// Offset is the signed distance along x from the plane to v.
func (p Plane) Offset(v r3.Vec) float64 {
	return v.X - (p.A + p.B*v.Y + p.C*v.Z)
}

// Side names a half-space of a Plane.
type Side int

const (
	LowerX Side = iota
	UpperX
)

// SideOf reports the half-space holding v. Points on the plane count as
// LowerX.
func (p Plane) SideOf(v r3.Vec) Side {
	if p.Offset(v) > 0 {
		return UpperX
	}
	return LowerX
}

// Split labels the foreground of tissue into hemispheres. The dividing plane
// is the least squares fit of x = a + b*y + c*z through the shift, superior,
// inferior, anterior and posterior landmarks. Voxels on the side of the left
// landmark get LabelLeft, all other foreground voxels get LabelRight. If the
// left landmark lies on the plane, the lower-x side is left.
func Split(tissue *Mask, points []r3.Vec) (*Mask, error) {
	plane, err := FitMidPlane(points)
	if err != nil {
		return nil, err
	}
	return SplitPlane(tissue, plane, plane.SideOf(points[splitLeft])), nil
}

// SplitPlane labels tissue foreground on the left side of plane with
// LabelLeft and the rest with LabelRight. Voxels on the plane are right.
func SplitPlane(tissue *Mask, plane Plane, left Side) *Mask {
	s := tissue.sampling
	out := tissue.Proto()
	for k := 0; k < s.nz; k++ {
		for j := 0; j < s.ny; j++ {
			for i := 0; i < s.nx; i++ {
				idx := i + s.nx*(j+s.ny*k)
				if tissue.labels[idx] == 0 {
					continue
				}
				d := plane.Offset(s.worldAt(float64(i), float64(j), float64(k)))
				if (left == LowerX && d < 0) || (left == UpperX && d > 0) {
					out.labels[idx] = LabelLeft
				} else {
					out.labels[idx] = LabelRight
				}
			}
		}
	}
	return out
}

// FitMidPlane fits the dividing plane through the shift, superior,
// inferior, anterior and posterior entries of a landmark point list.
// Rank deficient landmark sets give ErrSingularPlane.
func FitMidPlane(points []r3.Vec) (Plane, error) {
	if len(points) < splitPoints {
		return Plane{}, fmt.Errorf("split needs %d landmark points, got %d", splitPoints, len(points))
	}

	rows := []int{splitShift, splitSuperior, splitInferior, splitAnterior, splitPosterior}

	design := mat.NewDense(len(rows), 3, nil)
	target := mat.NewVecDense(len(rows), nil)
	for r, idx := range rows {
		p := points[idx]
		design.SetRow(r, []float64{1, p.Y, p.Z})
		target.SetVec(r, p.X)
	}

	var coef mat.VecDense
	if err := coef.SolveVec(design, target); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) {
			return Plane{}, fmt.Errorf("%w: %v", ErrSingularPlane, err)
		}
		return Plane{}, fmt.Errorf("fit dividing plane: %w", err)
	}

	plane := Plane{A: coef.AtVec(0), B: coef.AtVec(1), C: coef.AtVec(2)}
	for _, v := range []float64{plane.A, plane.B, plane.C} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Plane{}, fmt.Errorf("%w: non-finite coefficients", ErrSingularPlane)
		}
	}
	return plane, nil
}
