package nifti

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"spanmidline/pkg/mask"
)

// Store reads and writes masks as NIfTI-1 files. Paths ending in .gz are
// gzip compressed.
type Store struct{}

// Read loads a mask from path.
func (Store) Read(path string) (*mask.Mask, error) { return Read(path) }

// Write saves a mask to path.
func (Store) Write(path string, m *mask.Mask) error { return Write(path, m) }

// Read loads a mask from a .nii or .nii.gz file.
func Read(path string) (*mask.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening mask: %w", err)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("error opening gzip stream %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	m, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("error reading mask %s: %w", path, err)
	}
	return m, nil
}

// Write saves a mask to a .nii or .nii.gz file.
func Write(path string, m *mask.Mask) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating mask file: %w", err)
	}

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(bw)
		w = zw
	}

	err = Encode(w, m)
	if err == nil && zw != nil {
		err = zw.Close()
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("error writing mask %s: %w", path, err)
	}
	return nil
}

// Decode reads a single-file NIfTI-1 stream. Only the first 3D volume is
// used. Voxel values are scaled by scl_slope/scl_inter when set, rounded,
// and negative values become background.
func Decode(r io.Reader) (*mask.Mask, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	h, order, err := readHeader(b)
	if err != nil {
		return nil, err
	}

	var dims [3]int
	for i := range dims {
		dims[i] = 1
		if int(h.Dim[0]) > i && h.Dim[i+1] > 0 {
			dims[i] = int(h.Dim[i+1])
		}
	}

	sampling, err := mask.NewSampling(dims[0], dims[1], dims[2], affine(h))
	if err != nil {
		return nil, err
	}

	offset := dataOffset
	if int(h.VoxOffset) > offset {
		offset = int(h.VoxOffset)
	}
	bpv := bytesPerVoxel(h.DataType)
	n := sampling.Size()
	if len(b) < offset+n*bpv {
		return nil, fmt.Errorf("truncated voxel data: need %d bytes, have %d", offset+n*bpv, len(b))
	}
	data := b[offset : offset+n*bpv]

	slope, inter := float64(h.SclSlope), float64(h.SclInter)
	scaled := slope != 0 && !(slope == 1 && inter == 0)

	labels := make([]uint32, n)
	for i := range labels {
		v := voxelValue(data[i*bpv:(i+1)*bpv], h.DataType, order)
		if scaled {
			v = slope*v + inter
		}
		if v > 0 && !math.IsNaN(v) {
			labels[i] = uint32(math.Round(v))
		}
	}

	log.WithFields(log.Fields{
		"dims":     dims,
		"dataType": h.DataType,
	}).Debug("Decoded mask")

	return mask.FromLabels(sampling, labels)
}

func voxelValue(b []byte, dt int16, order binary.ByteOrder) float64 {
	switch dt {
	case dtUint8:
		return float64(b[0])
	case dtInt8:
		return float64(int8(b[0]))
	case dtInt16:
		return float64(int16(order.Uint16(b)))
	case dtUint16:
		return float64(order.Uint16(b))
	case dtInt32:
		return float64(int32(order.Uint32(b)))
	case dtUint32:
		return float64(order.Uint32(b))
	case dtFloat32:
		return float64(math.Float32frombits(order.Uint32(b)))
	case dtFloat64:
		return math.Float64frombits(order.Uint64(b))
	}
	return 0
}

// Encode writes m as a little-endian single-file NIfTI-1 stream with an
// sform affine. The narrowest unsigned datatype holding every label is used.
func Encode(w io.Writer, m *mask.Mask) error {
	return encode(w, m, binary.LittleEndian)
}

func encode(w io.Writer, m *mask.Mask, order binary.ByteOrder) error {
	s := m.Sampling()
	nx, ny, nz := s.Num()
	if nx > math.MaxInt16 || ny > math.MaxInt16 || nz > math.MaxInt16 {
		return fmt.Errorf("lattice %dx%dx%d exceeds nifti1 dimension limit", nx, ny, nz)
	}

	var h Header
	h.SizeOfHdr = headerSize
	h.Dim = [8]int16{3, int16(nx), int16(ny), int16(nz), 1, 1, 1, 1}

	switch top := m.MaxLabel(); {
	case top <= math.MaxUint8:
		h.DataType, h.BitPix = dtUint8, 8
	case top <= math.MaxUint16:
		h.DataType, h.BitPix = dtUint16, 16
	default:
		h.DataType, h.BitPix = dtUint32, 32
	}

	spacing := s.Spacing()
	h.PixDim = [8]float32{1, float32(spacing.X), float32(spacing.Y), float32(spacing.Z), 1, 1, 1, 1}
	h.VoxOffset = dataOffset
	h.XYZTUnits = unitsMM
	h.SFormCode = 1

	a := s.Affine()
	for c := 0; c < 4; c++ {
		h.SRowX[c] = float32(a[0][c])
		h.SRowY[c] = float32(a[1][c])
		h.SRowZ[c] = float32(a[2][c])
	}
	h.Magic = magicSingle

	if err := binary.Write(w, order, &h); err != nil {
		return err
	}
	// empty extension block
	if _, err := w.Write(make([]byte, dataOffset-headerSize)); err != nil {
		return err
	}

	bpv := bytesPerVoxel(h.DataType)
	buf := make([]byte, len(m.Labels())*bpv)
	for i, l := range m.Labels() {
		switch h.DataType {
		case dtUint8:
			buf[i] = byte(l)
		case dtUint16:
			order.PutUint16(buf[i*2:], uint16(l))
		default:
			order.PutUint32(buf[i*4:], l)
		}
	}
	_, err := io.Copy(w, bytes.NewReader(buf))
	return err
}
