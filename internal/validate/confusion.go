// Package validate compares a derived change raster against an independent
// reference and computes area-weighted accuracy metrics.
package validate

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/HMB3/AUS-Land-Clearing/internal/raster"
)

// ConfusionStats holds the area-weighted confusion matrix of a derived
// binary raster against a reference, plus the derived accuracy ratios.
// Ratios with a zero denominator are NaN, not 0: zero would falsely read
// as total disagreement. NaN marshals to JSON null.
type ConfusionStats struct {
	TruePositiveArea  float64 `json:"true_positive_area"`
	FalsePositiveArea float64 `json:"false_positive_area"`
	FalseNegativeArea float64 `json:"false_negative_area"`
	TrueNegativeArea  float64 `json:"true_negative_area"`

	Precision       float64 `json:"precision"`
	Recall          float64 `json:"recall"`
	F1              float64 `json:"f1"`
	OverallAccuracy float64 `json:"overall_accuracy"`
}

// Validate classifies every in-region cell into exactly one confusion
// bucket (derived vs reference: 1/1 TP, 1/0 FP, 0/1 FN, 0/0 TN), sums
// area-weighted totals, and derives precision, recall, F1 and overall
// accuracy. Both rasters must share grid geometry. Weights supplies
// per-cell area; nil means the uniform grid cell area. Cells that are
// nodata in either raster are excluded from every bucket.
func Validate(derived, reference *raster.Raster, mask []bool, weights []float64) (ConfusionStats, error) {
	var stats ConfusionStats
	if err := raster.CheckSameGrid(derived, reference); err != nil {
		return stats, err
	}
	cells := derived.Grid.Cells()
	if mask != nil && len(mask) != cells {
		return stats, fmt.Errorf("mask length %d does not match grid %s", len(mask), derived.Grid)
	}
	if weights != nil && len(weights) != cells {
		return stats, fmt.Errorf("weight length %d does not match grid %s", len(weights), derived.Grid)
	}

	cellArea := derived.Grid.CellArea()
	for i := 0; i < cells; i++ {
		if mask != nil && !mask[i] {
			continue
		}
		d, r := derived.Data[i], reference.Data[i]
		if raster.IsNoData(d) || raster.IsNoData(r) {
			continue
		}
		w := cellArea
		if weights != nil {
			w = weights[i]
		}
		switch {
		case d == 1 && r == 1:
			stats.TruePositiveArea += w
		case d == 1 && r == 0:
			stats.FalsePositiveArea += w
		case d == 0 && r == 1:
			stats.FalseNegativeArea += w
		default:
			stats.TrueNegativeArea += w
		}
	}

	stats.Precision = ratio(stats.TruePositiveArea, stats.TruePositiveArea+stats.FalsePositiveArea)
	stats.Recall = ratio(stats.TruePositiveArea, stats.TruePositiveArea+stats.FalseNegativeArea)
	stats.F1 = ratio(2*stats.Precision*stats.Recall, stats.Precision+stats.Recall)
	total := stats.TruePositiveArea + stats.FalsePositiveArea + stats.FalseNegativeArea + stats.TrueNegativeArea
	stats.OverallAccuracy = ratio(stats.TruePositiveArea+stats.TrueNegativeArea, total)
	return stats, nil
}

// ratio guards the zero-denominator case: the result is NaN (undefined),
// never 0 and never a panic.
func ratio(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// MarshalJSON emits NaN metrics as null, which encoding/json otherwise
// refuses to encode.
func (s ConfusionStats) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"true_positive_area":  s.TruePositiveArea,
		"false_positive_area": s.FalsePositiveArea,
		"false_negative_area": s.FalseNegativeArea,
		"true_negative_area":  s.TrueNegativeArea,
		"precision":           nullableMetric(s.Precision),
		"recall":              nullableMetric(s.Recall),
		"f1":                  nullableMetric(s.F1),
		"overall_accuracy":    nullableMetric(s.OverallAccuracy),
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores null metrics to NaN.
func (s *ConfusionStats) UnmarshalJSON(data []byte) error {
	var raw struct {
		TruePositiveArea  float64  `json:"true_positive_area"`
		FalsePositiveArea float64  `json:"false_positive_area"`
		FalseNegativeArea float64  `json:"false_negative_area"`
		TrueNegativeArea  float64  `json:"true_negative_area"`
		Precision         *float64 `json:"precision"`
		Recall            *float64 `json:"recall"`
		F1                *float64 `json:"f1"`
		OverallAccuracy   *float64 `json:"overall_accuracy"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.TruePositiveArea = raw.TruePositiveArea
	s.FalsePositiveArea = raw.FalsePositiveArea
	s.FalseNegativeArea = raw.FalseNegativeArea
	s.TrueNegativeArea = raw.TrueNegativeArea
	s.Precision = metricOrNaN(raw.Precision)
	s.Recall = metricOrNaN(raw.Recall)
	s.F1 = metricOrNaN(raw.F1)
	s.OverallAccuracy = metricOrNaN(raw.OverallAccuracy)
	return nil
}

func nullableMetric(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func metricOrNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
