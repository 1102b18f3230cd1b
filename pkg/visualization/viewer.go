// Package visualization renders quality-control snapshots of label masks
// with the midline landmarks drawn on top.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"gonum.org/v1/gonum/spatial/r3"

	"spanmidline/internal/models"
	"spanmidline/pkg/mask"
)

// SnapshotFile is the name of the QC image inside an output directory.
const SnapshotFile = "snapshot.png"

// markerColor is used for landmark pixels.
var markerColor = color.RGBA{R: 255, A: 255}

// Viewer extracts 2D slices from a label mask.
type Viewer struct {
	mask *mask.Mask

	// dimensions of the volume
	width  int
	height int
	depth  int

	// maxLabel scales labels into gray levels
	maxLabel uint32
}

// NewViewer creates a viewer over m.
func NewViewer(m *mask.Mask) *Viewer {
	w, h, d := m.Dims()
	maxLabel := m.MaxLabel()
	if maxLabel == 0 {
		maxLabel = 1
	}
	return &Viewer{mask: m, width: w, height: h, depth: d, maxLabel: maxLabel}
}

func (v *Viewer) gray(label uint32) color.RGBA {
	g := uint8(uint64(label) * 255 / uint64(v.maxLabel))
	return color.RGBA{R: g, G: g, B: g, A: 255}
}

// ExtractSlice extracts a 2D slice along the given axis
func (v *Viewer) ExtractSlice(axis string, position int) (*image.RGBA, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	var img *image.RGBA

	switch axis {
	case "x", "X":
		// YZ plane
		if position >= v.width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, v.width)
		}
		img = image.NewRGBA(image.Rect(0, 0, v.depth, v.height))
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				img.SetRGBA(z, y, v.gray(v.mask.Get(position, y, z)))
			}
		}

	case "y", "Y":
		// XZ plane
		if position >= v.height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, v.height)
		}
		img = image.NewRGBA(image.Rect(0, 0, v.width, v.depth))
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				img.SetRGBA(x, z, v.gray(v.mask.Get(x, position, z)))
			}
		}

	case "z", "Z":
		// XY plane
		if position >= v.depth {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, v.depth)
		}
		img = image.NewRGBA(image.Rect(0, 0, v.width, v.height))
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				img.SetRGBA(x, y, v.gray(v.mask.Get(x, y, position)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

// MarkPoints draws each world point onto a slice extracted along axis.
// Points are projected onto the slice plane.
func (v *Viewer) MarkPoints(img *image.RGBA, axis string, pts []r3.Vec) {
	s := v.mask.Sampling()
	for _, p := range pts {
		n := s.Nearest(p)
		switch axis {
		case "x", "X":
			img.SetRGBA(n.K, n.J, markerColor)
		case "y", "Y":
			img.SetRGBA(n.I, n.K, markerColor)
		default:
			img.SetRGBA(n.I, n.J, markerColor)
		}
	}
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveSnapshot writes the axial slice through the shift landmark with all
// landmarks marked. Without landmarks the middle slice is used.
func SaveSnapshot(path string, m *mask.Mask, landmarks *models.LandmarkList) error {
	v := NewViewer(m)

	position := v.depth / 2
	if landmarks != nil {
		position = m.Sampling().Nearest(landmarks.Shift).K
	}

	img, err := v.ExtractSlice("z", position)
	if err != nil {
		return err
	}
	v.MarkPoints(img, "z", landmarks.Points())

	if err := v.SaveSlice(img, path); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}
