package filter

import (
	"fmt"

	"drp/internal/models"
)

// Display-only helpers. Nothing below feeds back into filtering or storage;
// the underlying records keep their stored millimetre values.

// GroupedDimension is a visually-identical set of dimension rows collapsed
// into one line with their quantities summed.
type GroupedDimension struct {
	WidthMM  float64 `json:"width_mm"`
	HeightMM float64 `json:"height_mm"`
	Qty      int     `json:"qty"`
}

// GroupDimensions collapses dimension rows that share the same width/height
// into single rows, summing quantities. Output order follows the first
// appearance of each distinct dimension.
func GroupDimensions(dims []models.PaperDimension) []GroupedDimension {
	type key struct{ w, h float64 }
	index := make(map[key]int, len(dims))
	out := make([]GroupedDimension, 0, len(dims))
	for _, d := range dims {
		k := key{d.WidthMM, d.HeightMM}
		if i, ok := index[k]; ok {
			out[i].Qty += d.Qty
			continue
		}
		index[k] = len(out)
		out = append(out, GroupedDimension{WidthMM: d.WidthMM, HeightMM: d.HeightMM, Qty: d.Qty})
	}
	return out
}

// Inches converts millimetres to inches for display.
func Inches(mm float64) float64 { return mm / 25.4 }

// FormatInches renders a millimetre value as inches, e.g. `48.00"`.
func FormatInches(mm float64) string {
	return fmt.Sprintf("%.2f\"", Inches(mm))
}

// FormatMM renders a millimetre value for display, dropping a fractional
// part when the stored value is whole.
func FormatMM(mm float64) string {
	if mm == float64(int64(mm)) {
		return fmt.Sprintf("%d mm", int64(mm))
	}
	return fmt.Sprintf("%.1f mm", mm)
}
