package calibration

import (
	"slices"

	"github.com/agbru/machin/internal/machin"
)

// CalibrationPrecision is the precision, in limbs, of the formula timed by
// every trial. It is large enough for the block geometry to matter and small
// enough for a trial to take tens of milliseconds.
const CalibrationPrecision = 2048

// CalibrationParams returns the formula timed during calibration: the default
// formula at precision limbs, or CalibrationPrecision if precision is not
// positive.
func CalibrationParams(precision int) machin.Params {
	p := machin.DefaultParams()
	p.Precision = CalibrationPrecision
	if precision > 0 {
		p.Precision = precision
	}
	return p
}

// GenerateBlockWidths returns the candidate block widths for a run at the
// given precision. Widths above the precision only add padding limbs, so at
// most one of them is kept.
func GenerateBlockWidths(precision int) []int {
	return capCandidates([]int{8, 16, 32, 64, 128, 256, 512}, precision)
}

// GenerateQuickBlockWidths returns a reduced set of widths.
func GenerateQuickBlockWidths(precision int) []int {
	return capCandidates([]int{16, 64, 256}, precision)
}

// GenerateBlockHeights returns the candidate block heights. The height is
// the number of series steps per remainder generation and does not depend
// on the precision.
func GenerateBlockHeights() []int {
	return []int{8, 16, 32, 64, 128, 256}
}

// GenerateQuickBlockHeights returns a reduced set of heights.
func GenerateQuickBlockHeights() []int {
	return []int{16, 64, 256}
}

// capCandidates keeps candidates up to the first one reaching limit and
// clamps them to the accepted block range.
func capCandidates(candidates []int, limit int) []int {
	out := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if c < machin.MinBlockWidth || c > machin.MaxBlockWidth {
			continue
		}
		out = append(out, c)
		if limit > 0 && c >= limit {
			break
		}
	}
	return out
}

// ValidateGeometry clamps a width and height into the accepted range,
// substituting the defaults for non-positive values.
func ValidateGeometry(width, height int) (int, int) {
	if width <= 0 {
		width = machin.DefaultBlockWidth
	}
	if height <= 0 {
		height = machin.DefaultBlockHeight
	}
	width = min(max(width, machin.MinBlockWidth), machin.MaxBlockWidth)
	height = min(max(height, machin.MinBlockHeight), machin.MaxBlockHeight)
	return width, height
}

// sortedUnique returns a sorted copy of values without duplicates.
func sortedUnique(values []int) []int {
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}
