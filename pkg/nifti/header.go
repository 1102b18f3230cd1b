// Package nifti reads and writes label masks stored as single-file NIfTI-1
// volumes (.nii and .nii.gz).
//
// Based on the official definition of the nifti1 header,
// https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h
package nifti

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
)

const (
	headerSize = 348
	dataOffset = 352
)

// Datatype codes (DT_* in nifti1.h) understood by this package.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
)

const unitsMM = 2

var magicSingle = [4]byte{'n', '+', '1', 0}

// Header is the on-disk nifti1 header.
//
// Type translation from nifti1 C header to golang:
//
//	C     Go
//	-------------
//	int   int32
//	float float32
//	short int16
//	char  int8/byte
type Header struct {
	SizeOfHdr          int32    // Must be 348
	UnusedDataType     [10]byte // Unused
	UnusedDbName       [18]byte // Unused
	UnusedExtents      int32    // Unused
	UnusedSessionError int16    // Unused
	UnusedRegular      byte     // Unused
	DimInfo            int8     // MRI slice ordering

	Dim           [8]int16   // Data array dimensions
	IntentP1      float32    // 1st intent parameter
	IntentP2      float32    // 2nd intent parameter
	IntentP3      float32    // 3rd intent parameter
	IntentCode    int16      // NIFTI_INTENT_* code
	DataType      int16      // Defines data type
	BitPix        int16      // Number bits/voxel
	SliceStart    int16      // First slice index
	PixDim        [8]float32 // Grid spacing
	VoxOffset     float32    // Offset into .nii file
	SclSlope      float32    // Data scaling: slope
	SclInter      float32    // Data scaling: offset
	SliceEnd      int16      // Last slice index
	SliceCode     int8       // Slice timing order
	XYZTUnits     int8       // Units of pixdim[1..4]
	CalMax        float32    // Max display intensity
	CalMin        float32    // Min display intensity
	SliceDuration float32    // Time for 1 slice
	TOffset       float32    // Time axis shift
	UnusedGlmax   int32      // Unused
	UnusedGlmin   int32      // Unused

	Descrip [80]byte // Any text you like
	AuxFile [24]byte // Auxiliary filename

	QFormCode int16 // NIFTI_XFORM_* code
	SFormCode int16 // NIFTI_XFORM_* code

	QuaternB float32 // Quaternion b params
	QuaternC float32 // Quaternion c params
	QuaternD float32 // Quaternion d params
	QOffsetX float32 // Quaternion x shift
	QOffsetY float32 // Quaternion y shift
	QOffsetZ float32 // Quaternion z shift

	SRowX [4]float32 // 1st row affine transform
	SRowY [4]float32 // 2nd row affine transform
	SRowZ [4]float32 // 3rd row affine transform

	IntentName [16]byte // 'name' or meaning of data

	Magic [4]byte // Must be "n+1\0"
}

// readHeader decodes the header and infers the byte order from Dim[0].
func readHeader(b []byte) (Header, binary.ByteOrder, error) {
	if len(b) < headerSize {
		return Header{}, nil, fmt.Errorf("file too short for nifti1 header: %d bytes", len(b))
	}

	var h Header
	var order binary.ByteOrder = binary.LittleEndian
	if err := binary.Read(bytes.NewReader(b), order, &h); err != nil {
		return Header{}, nil, fmt.Errorf("error decoding header: %w", err)
	}

	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		h = Header{}
		order = binary.BigEndian
		if err := binary.Read(bytes.NewReader(b), order, &h); err != nil {
			return Header{}, nil, fmt.Errorf("error decoding header: %w", err)
		}
	}

	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		return Header{}, nil, fmt.Errorf("cannot infer byte order: dim[0]=%d not in [1, 7]", h.Dim[0])
	}

	if err := validateHeader(h); err != nil {
		return Header{}, nil, err
	}

	log.WithFields(log.Fields{
		"byteOrder": order,
		"dataType":  h.DataType,
		"dim":       h.Dim,
	}).Debug("Header is valid")

	return h, order, nil
}

func validateHeader(h Header) error {
	switch {
	case h.SizeOfHdr != headerSize:
		return fmt.Errorf("invalid header size %d for nifti1", h.SizeOfHdr)

	// n+1 means header and data live in the same file
	case h.Magic != magicSingle:
		return fmt.Errorf("invalid file magic %q: data must be stored in same file as header", h.Magic[:3])

	case bytesPerVoxel(h.DataType) == 0:
		return fmt.Errorf("unsupported datatype %d", h.DataType)
	}
	return nil
}

func bytesPerVoxel(dt int16) int {
	switch dt {
	case dtUint8, dtInt8:
		return 1
	case dtInt16, dtUint16:
		return 2
	case dtInt32, dtUint32, dtFloat32:
		return 4
	case dtFloat64:
		return 8
	}
	return 0
}

// affine picks sform, then qform, then the legacy pixdim scaling.
func affine(h Header) [4][4]float64 {
	switch {
	case h.SFormCode > 0:
		var m [4][4]float64
		for c := 0; c < 4; c++ {
			m[0][c] = float64(h.SRowX[c])
			m[1][c] = float64(h.SRowY[c])
			m[2][c] = float64(h.SRowZ[c])
		}
		m[3][3] = 1
		return m

	case h.QFormCode > 0:
		return quaternToMat44(h)

	default:
		return [4][4]float64{
			{pixDim(h, 1), 0, 0, 0},
			{0, pixDim(h, 2), 0, 0},
			{0, 0, pixDim(h, 3), 0},
			{0, 0, 0, 1},
		}
	}
}

func pixDim(h Header, i int) float64 {
	d := float64(h.PixDim[i])
	if d <= 0 {
		return 1
	}
	return d
}

// quaternToMat44 follows nifti_quatern_to_mat44 in nifti1_io.c.
func quaternToMat44(h Header) [4][4]float64 {
	b := float64(h.QuaternB)
	c := float64(h.QuaternC)
	d := float64(h.QuaternD)

	a := 1 - (b*b + c*c + d*d)
	if a < 1e-7 {
		a = 1 / math.Sqrt(b*b+c*c+d*d)
		b *= a
		c *= a
		d *= a
		a = 0
	} else {
		a = math.Sqrt(a)
	}

	xd, yd, zd := pixDim(h, 1), pixDim(h, 2), pixDim(h, 3)
	if h.PixDim[0] < 0 {
		zd = -zd
	}

	return [4][4]float64{
		{(a*a + b*b - c*c - d*d) * xd, 2 * (b*c - a*d) * yd, 2 * (b*d + a*c) * zd, float64(h.QOffsetX)},
		{2 * (b*c + a*d) * xd, (a*a + c*c - b*b - d*d) * yd, 2 * (c*d - a*b) * zd, float64(h.QOffsetY)},
		{2 * (b*d - a*c) * xd, 2 * (c*d + a*b) * yd, (a*a + d*d - c*c - b*b) * zd, float64(h.QOffsetZ)},
		{0, 0, 0, 1},
	}
}
