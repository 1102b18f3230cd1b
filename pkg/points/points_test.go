package points

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spanmidline/internal/models"
)

func TestWriteReadPreservesOrder(t *testing.T) {
	pts := []models.Point3D{
		{X: 7.42662, Y: 3.15, Z: 8.1},
		{X: -0.001, Y: 1e-9, Z: 12345.678},
		{X: math.Pi, Y: math.E, Z: math.Sqrt2},
		{X: 0, Y: 0, Z: 0},
	}

	path := filepath.Join(t.TempDir(), "landmarks.txt")
	require.NoError(t, Write(path, pts))

	got, err := Read(path)
	require.NoError(t, err)
	require.Len(t, got, len(pts))
	for i := range pts {
		assert.InDelta(t, pts[i].X, got[i].X, 1e-12)
		assert.InDelta(t, pts[i].Y, got[i].Y, 1e-12)
		assert.InDelta(t, pts[i].Z, got[i].Z, 1e-12)
	}
}

func TestEmptySetRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Zero(t, buf.Len())

	got, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeRejectsShortRows(t *testing.T) {
	_, err := Decode(strings.NewReader("1 2 3\n\n4 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
