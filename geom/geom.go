// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package geom defines the planar point and edge types shared by the board, the lift pipeline
// and the triangulation collaborator.
package geom

import (
	"errors"
	"math"

	"github.com/golang/geo/r2"
)

var ErrEmpty = errors.New("geom: empty point set")

// Point is a position in canvas pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func PointFromVec(v r2.Point) Point {
	return Point{X: v.X, Y: v.Y}
}

func (p Point) Vec() r2.Point {
	return r2.Point{X: p.X, Y: p.Y}
}

func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return p.Vec().Sub(q.Vec()).Norm()
}

// Edge is a segment returned by the triangulation collaborator. Its endpoints are raw
// coordinates in the same space as the Point set that produced it, not point indices.
type Edge struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

func EdgeBetween(a, b Point) Edge {
	return Edge{X1: a.X, Y1: a.Y, X2: b.X, Y2: b.Y}
}

func (e Edge) Start() Point {
	return Point{X: e.X1, Y: e.Y1}
}

func (e Edge) End() Point {
	return Point{X: e.X2, Y: e.Y2}
}

func (e Edge) IsFinite() bool {
	return e.Start().IsFinite() && e.End().IsFinite()
}

// Centroid returns the arithmetic mean of points.
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, ErrEmpty
	}
	var sum r2.Point
	for _, p := range points {
		sum = sum.Add(p.Vec())
	}
	return PointFromVec(sum.Mul(1 / float64(len(points)))), nil
}

// Nearest returns the index of the point closest to p whose distance is strictly less than
// radius. Ties resolve to the lowest index.
func Nearest(points []Point, p Point, radius float64) (int, bool) {
	best, bestDist := -1, radius
	for i, q := range points {
		if d := q.Distance(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// Append returns a new slice holding points followed by p. The input is never modified.
func Append(points []Point, p Point) []Point {
	out := make([]Point, len(points), len(points)+1)
	copy(out, points)
	return append(out, p)
}

// Remove returns a new slice without the point at index i.
// It panics if i is out of range.
func Remove(points []Point, i int) []Point {
	if i < 0 || i >= len(points) {
		panic("Remove: index out of range")
	}
	out := make([]Point, 0, len(points)-1)
	out = append(out, points[:i]...)
	return append(out, points[i+1:]...)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
