package midline

import (
	"fmt"

	"spanmidline/internal/models"
)

// Variant selects how landmarks are obtained and which metrics are written.
type Variant int

const (
	// VariantSubject reads per-subject landmarks and measures tissue
	// hemisphere volumes.
	VariantSubject Variant = iota

	// VariantAtlas uses fixed atlas landmarks and reports shift metrics only.
	VariantAtlas
)

// Metric names.
const (
	KeyShiftMM      = "shift_mm"
	KeyShiftLat     = "shift_lat"
	KeyShiftWidth   = "shift_width"
	KeyShiftPercent = "shift_percent"
	KeyShiftLeft    = "shift_left"
	KeyShiftRight   = "shift_right"
	KeyShiftMin     = "shift_min"
	KeyShiftMax     = "shift_max"
	KeyShiftRatio   = "shift_ratio"
	KeyShiftIndex   = "shift_index"
	KeyVolumeLeft   = "tissue_volume_left"
	KeyVolumeRight  = "tissue_volume_right"
	KeyVolumeIndex  = "tissue_volume_index"
)

var subjectKeys = []string{
	KeyShiftMM, KeyShiftLat, KeyShiftWidth, KeyShiftPercent,
	KeyShiftLeft, KeyShiftRight, KeyShiftMin, KeyShiftMax,
	KeyShiftRatio, KeyShiftIndex,
	KeyVolumeLeft, KeyVolumeRight, KeyVolumeIndex,
}

var atlasKeys = []string{
	KeyShiftMM, KeyShiftWidth, KeyShiftPercent,
	KeyShiftLeft, KeyShiftRight, KeyShiftMin, KeyShiftMax,
	KeyShiftRatio,
}

func (v Variant) String() string {
	switch v {
	case VariantSubject:
		return "subject"
	case VariantAtlas:
		return "atlas"
	}
	return fmt.Sprintf("Variant(%d)", int(v))
}

// ParseVariant maps "subject" or "atlas" to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "subject":
		return VariantSubject, nil
	case "atlas":
		return VariantAtlas, nil
	}
	return 0, fmt.Errorf("unknown variant %q (must be subject or atlas)", s)
}

// Keys lists the metric names written by the variant, in output order.
func (v Variant) Keys() []string {
	if v == VariantAtlas {
		return append([]string(nil), atlasKeys...)
	}
	return append([]string(nil), subjectKeys...)
}

// BuildTable assembles the metric table for a variant. Every key is NA when
// no centroid was found; volume keys are also NA when hemispheres were not
// computed.
func BuildTable(v Variant, s *Shift, h *Hemispheres) *models.MetricTable {
	values := map[string]float64{}
	if s != nil && s.Found() {
		values[KeyShiftMM] = s.MM
		values[KeyShiftLat] = s.Lat
		values[KeyShiftWidth] = s.Width
		values[KeyShiftPercent] = s.Percent
		values[KeyShiftLeft] = s.Left
		values[KeyShiftRight] = s.Right
		values[KeyShiftMin] = s.Min
		values[KeyShiftMax] = s.Max
		values[KeyShiftRatio] = s.Ratio
		values[KeyShiftIndex] = s.Index

		if h != nil && h.Computed {
			values[KeyVolumeLeft] = h.Left
			values[KeyVolumeRight] = h.Right
			values[KeyVolumeIndex] = h.Index
		}
	}

	table := models.NewMetricTable()
	for _, key := range v.Keys() {
		if value, ok := values[key]; ok {
			table.Set(key, value)
		} else {
			table.SetNA(key)
		}
	}
	return table
}
