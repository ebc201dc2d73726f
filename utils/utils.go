// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package utils provides helpers for generating planar point sets on a canvas.

package utils

import (
	"math/rand"

	"github.com/2dChan/liftview/geom"
	"github.com/golang/geo/r2"
)

// GenerateRandomPoints generates cnt uniformly distributed points inside bounds.
// The seed parameter ensures reproducibility.
func GenerateRandomPoints(cnt int, bounds r2.Rect, seed int64) []geom.Point {
	//nolint:gosec
	random := rand.New(rand.NewSource(seed))
	points := make([]geom.Point, cnt)

	lo, size := bounds.Lo(), bounds.Size()
	for i := range cnt {
		points[i] = geom.Point{
			X: lo.X + random.Float64()*size.X,
			Y: lo.Y + random.Float64()*size.Y,
		}
	}

	return points
}

// CanvasBounds returns the rectangle [0, width] x [0, height].
func CanvasBounds(width, height float64) r2.Rect {
	return r2.RectFromPoints(r2.Point{}, r2.Point{X: width, Y: height})
}

// Translate returns a copy of points shifted by d.
func Translate(points []geom.Point, d r2.Point) []geom.Point {
	out := make([]geom.Point, len(points))
	for i, p := range points {
		out[i] = geom.PointFromVec(p.Vec().Add(d))
	}
	return out
}

// TranslateEdges returns a copy of edges shifted by d.
func TranslateEdges(edges []geom.Edge, d r2.Point) []geom.Edge {
	out := make([]geom.Edge, len(edges))
	for i, e := range edges {
		out[i] = geom.EdgeBetween(
			geom.PointFromVec(e.Start().Vec().Add(d)),
			geom.PointFromVec(e.End().Vec().Add(d)),
		)
	}
	return out
}
