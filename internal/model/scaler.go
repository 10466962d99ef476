package model

import (
	"fmt"
	"math"
)

// StandardScaler standardizes features to zero mean and unit variance.
// Features records the schema the scaler was fitted on so schema drift
// between training and scoring is detectable at load time.
type StandardScaler struct {
	Features []string  `json:"features"`
	Mean     []float64 `json:"mean"`
	Scale    []float64 `json:"scale"`
}

// FitScaler computes per-feature mean and standard deviation over rows.
func FitScaler(rows [][]float64, features []string) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows to fit scaler", ErrTrainingFailed)
	}
	width := len(rows[0])

	mean := make([]float64, width)
	for _, row := range rows {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(rows))
	for j := range mean {
		mean[j] /= n
	}

	scale := make([]float64, width)
	for _, row := range rows {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / n)
		// Constant features pass through unscaled
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	return &StandardScaler{Features: features, Mean: mean, Scale: scale}, nil
}

// Transform standardizes a single row.
func (s *StandardScaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, fmt.Errorf("expected %d features, got %d", len(s.Mean), len(row))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// TransformAll standardizes every row.
func (s *StandardScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		t, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
