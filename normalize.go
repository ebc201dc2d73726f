// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package liftview

import (
	"errors"
	"math"
)

var (
	ErrEmptyInput   = errors.New("liftview: empty input")
	ErrInvalidRange = errors.New("liftview: invalid target range")
	ErrNonFinite    = errors.New("liftview: non-finite value")
)

// Range is a closed target interval for normalized heights.
type Range struct {
	Min, Max float64
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

func (r Range) validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return ErrInvalidRange
	}
	if r.Min >= r.Max {
		return ErrInvalidRange
	}
	return nil
}

// Normalize maps zs affinely onto r so that min(zs) and max(zs) land on r.Min and r.Max.
// If every value is equal the result is r.Mid() for every element.
func Normalize(zs []float64, r Range) ([]float64, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	if len(zs) == 0 {
		return nil, ErrEmptyInput
	}

	minZ, maxZ := math.Inf(1), math.Inf(-1)
	for _, z := range zs {
		if math.IsNaN(z) || math.IsInf(z, 0) {
			return nil, ErrNonFinite
		}
		minZ = math.Min(minZ, z)
		maxZ = math.Max(maxZ, z)
	}

	out := make([]float64, len(zs))
	mid := r.Mid()
	if maxZ == minZ {
		for i := range out {
			out[i] = mid
		}
		return out, nil
	}

	meanZ := (minZ + maxZ) / 2
	scale := (r.Max - r.Min) / (maxZ - minZ)
	for i, z := range zs {
		out[i] = (z-meanZ)*scale + mid
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, ErrNonFinite
		}
	}
	return out, nil
}
