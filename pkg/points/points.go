// Package points stores ordered point sets as text, one "x y z" row per
// point.
package points

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"spanmidline/internal/models"
)

// Encode writes points to w, one row per point.
func Encode(w io.Writer, pts []models.Point3D) error {
	bw := bufio.NewWriter(w)
	for _, p := range pts {
		row := strings.Join([]string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
			strconv.FormatFloat(p.Z, 'g', -1, 64),
		}, " ")
		if _, err := bw.WriteString(row + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Decode reads points written by Encode. Blank lines are skipped.
func Decode(r io.Reader) ([]models.Point3D, error) {
	var pts []models.Point3D

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("line %d: expected 3 values, got %d", line, len(fields))
		}

		var v [3]float64
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			v[i] = x
		}
		pts = append(pts, models.Point3D{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pts, nil
}

// Write saves points to path.
func Write(path string, pts []models.Point3D) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("error creating point file: %w", err)
	}
	if err := Encode(f, pts); err != nil {
		f.Close()
		return fmt.Errorf("error writing point file: %w", err)
	}
	return f.Close()
}

// Read loads points from path.
func Read(path string) ([]models.Point3D, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening point file: %w", err)
	}
	defer f.Close()

	pts, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("error reading point file %s: %w", path, err)
	}
	return pts, nil
}
