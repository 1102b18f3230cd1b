package nifti

import (
	"bytes"
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"spanmidline/pkg/mask"
)

// createTestMask builds a small labeled volume with a non-trivial sampling
func createTestMask(t *testing.T, maxLabel uint32) *mask.Mask {
	t.Helper()
	s, err := mask.NewGridSampling(5, 4, 3, r3.Vec{X: -2, Y: 1.5, Z: 10}, r3.Vec{X: 0.5, Y: 0.25, Z: 2})
	require.NoError(t, err)

	m := mask.New(s)
	for k := 0; k < 3; k++ {
		for j := 0; j < 4; j++ {
			for i := 0; i < 5; i++ {
				m.Set(i, j, k, uint32(i+j+k)%(maxLabel+1))
			}
		}
	}
	m.Set(4, 3, 2, maxLabel)
	return m
}

func assertSameMask(t *testing.T, want, got *mask.Mask) {
	t.Helper()
	assert.True(t, want.Sampling().Equal(got.Sampling()), "sampling differs")
	assert.Equal(t, want.Labels(), got.Labels())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, maxLabel := range []uint32{2, 300, 70000} {
		m := createTestMask(t, maxLabel)

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, m))

		got, err := Decode(&buf)
		require.NoError(t, err)
		assertSameMask(t, m, got)
	}
}

func TestDecodeBigEndian(t *testing.T) {
	m := createTestMask(t, 3)

	var buf bytes.Buffer
	require.NoError(t, encode(&buf, m, binary.BigEndian))

	got, err := Decode(&buf)
	require.NoError(t, err)
	assertSameMask(t, m, got)
}

func TestWriteReadGzip(t *testing.T) {
	m := createTestMask(t, 2)
	dir := t.TempDir()

	for _, name := range []string{"hemis.mask.nii.gz", "hemis.mask.nii"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Store{}.Write(path, m))

		got, err := Store{}.Read(path)
		require.NoError(t, err)
		assertSameMask(t, m, got)
	}
}

func TestDecodeRejectsBadInput(t *testing.T) {
	_, err := Decode(bytes.NewReader(make([]byte, 10)))
	assert.Error(t, err)

	// valid header, bad magic
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, createTestMask(t, 1)))
	raw := buf.Bytes()
	copy(raw[344:348], []byte("ni1\x00"))
	_, err = Decode(bytes.NewReader(raw))
	assert.Error(t, err)

	// truncated voxel data
	buf.Reset()
	require.NoError(t, Encode(&buf, createTestMask(t, 1)))
	_, err = Decode(bytes.NewReader(buf.Bytes()[:dataOffset+3]))
	assert.Error(t, err)
}

func TestQFormAffine(t *testing.T) {
	var h Header
	h.QFormCode = 1
	h.PixDim = [8]float32{1, 2, 3, 4}
	h.QOffsetX, h.QOffsetY, h.QOffsetZ = 10, 20, 30

	a := affine(h)
	assert.InDelta(t, 2.0, a[0][0], 1e-9)
	assert.InDelta(t, 3.0, a[1][1], 1e-9)
	assert.InDelta(t, 4.0, a[2][2], 1e-9)
	assert.InDelta(t, 30.0, a[2][3], 1e-9)

	// qfac flips the third axis
	h.PixDim[0] = -1
	assert.InDelta(t, -4.0, affine(h)[2][2], 1e-9)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.nii.gz"))
	assert.Error(t, err)
}
