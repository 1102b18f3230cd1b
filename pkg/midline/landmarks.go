package midline

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"spanmidline/internal/models"
)

// ReadLandmarkFrame parses a landmark file holding eight whitespace
// separated values: xCenter xLeft xRight yAnterior yPosterior zCenter
// zSuperior zInferior.
func ReadLandmarkFrame(path string) (models.LandmarkFrame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.LandmarkFrame{}, fmt.Errorf("error reading landmarks: %w", err)
	}

	fields := strings.Fields(string(data))
	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return models.LandmarkFrame{}, fmt.Errorf("error parsing landmark %d in %s: %w", i, path, err)
		}
		values[i] = v
	}

	frame, err := models.FrameFromValues(values)
	if err != nil {
		return models.LandmarkFrame{}, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}
