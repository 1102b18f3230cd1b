package models

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point3D is a world-space coordinate in millimetres.
type Point3D = r3.Vec

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point3D) float64 {
	return r3.Norm(r3.Sub(a, b))
}

// LandmarkFrame holds the eight scalar coordinates that define the canonical
// anatomical axes of a subject or an atlas.
type LandmarkFrame struct {
	// XCenter is the midsagittal x coordinate
	XCenter float64 `yaml:"xCenter"`

	// XLeft and XRight bound the brain laterally
	XLeft  float64 `yaml:"xLeft"`
	XRight float64 `yaml:"xRight"`

	// YAnterior and YPosterior bound the brain along the y axis
	YAnterior  float64 `yaml:"yAnterior"`
	YPosterior float64 `yaml:"yPosterior"`

	// ZCenter is the canonical transverse plane
	ZCenter float64 `yaml:"zCenter"`

	// ZSuperior and ZInferior bound the brain along the z axis
	ZSuperior float64 `yaml:"zSuperior"`
	ZInferior float64 `yaml:"zInferior"`
}

// FrameFromValues builds a frame from values in landmark file order:
// xCenter, xLeft, xRight, yAnterior, yPosterior, zCenter, zSuperior, zInferior.
func FrameFromValues(values []float64) (LandmarkFrame, error) {
	if len(values) != 8 {
		return LandmarkFrame{}, fmt.Errorf("expected 8 landmark values, got %d", len(values))
	}
	return LandmarkFrame{
		XCenter:    values[0],
		XLeft:      values[1],
		XRight:     values[2],
		YAnterior:  values[3],
		YPosterior: values[4],
		ZCenter:    values[5],
		ZSuperior:  values[6],
		ZInferior:  values[7],
	}, nil
}

// Values returns the frame in landmark file order.
func (f LandmarkFrame) Values() []float64 {
	return []float64{f.XCenter, f.XLeft, f.XRight, f.YAnterior, f.YPosterior, f.ZCenter, f.ZSuperior, f.ZInferior}
}

// Width is the lateral extent of the frame.
func (f LandmarkFrame) Width() float64 {
	return f.XRight - f.XLeft
}

// LandmarkList is the set of derived midline points. The hemisphere split
// consumes them positionally, so Points must keep the field order below.
type LandmarkList struct {
	Shift     Point3D
	Center    Point3D
	Left      Point3D
	Right     Point3D
	Superior  Point3D
	Inferior  Point3D
	Anterior  Point3D
	Posterior Point3D
}

// Landmark positions within Points.
const (
	ShiftIndex = iota
	CenterIndex
	LeftIndex
	RightIndex
	SuperiorIndex
	InferiorIndex
	AnteriorIndex
	PosteriorIndex

	NumLandmarks
)

// Points returns the landmarks in split order:
// shift, center, left, right, superior, inferior, anterior, posterior.
func (l *LandmarkList) Points() []Point3D {
	if l == nil {
		return nil
	}
	return []Point3D{l.Shift, l.Center, l.Left, l.Right, l.Superior, l.Inferior, l.Anterior, l.Posterior}
}

// CentroidSet is an ordered sequence of component centroids. Only the first
// entry is used by the shift computation.
type CentroidSet []Point3D
