// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package liftview lifts a planar point set and its Delaunay edges onto the paraboloid
// z = |p - c|² around the centroid c, and normalizes the heights for display.
package liftview

import (
	"errors"
	"fmt"

	"github.com/2dChan/liftview/geom"
	"github.com/golang/geo/r3"
)

var ErrInsufficientInput = errors.New("liftview: insufficient input for lift")

const (
	defaultTargetMin = -175
	defaultTargetMax = 175
)

// DefaultRange is the height range used when no WithRange option is given.
var DefaultRange = Range{Min: defaultTargetMin, Max: defaultTargetMax}

type LiftOptions struct {
	Range Range
}

type LiftOption func(*LiftOptions) error

// WithRange sets the target range of normalized heights. min must be less than max.
func WithRange(min, max float64) LiftOption {
	return func(o *LiftOptions) error {
		r := Range{Min: min, Max: max}
		if err := r.validate(); err != nil {
			return fmt.Errorf("WithRange(%v, %v): %w", min, max, err)
		}
		o.Range = r
		return nil
	}
}

// Lift is the paraboloid lift of one (points, edges) pair. Coordinates are centered on the
// centroid of the points and every height comes from one shared normalization pass.
type Lift struct {
	Centroid geom.Point
	Range    Range

	// Points[i] is points[i] centered, with its normalized height as Z.
	Points []r3.Vector
	// Edges[i] holds the two lifted endpoints of edges[i].
	Edges [][2]r3.Vector

	// NOTE: Ordered as [p0 .. pn-1, e0.start, e0.end, e1.start, e1.end, ...]
	RawHeights []float64
	Heights    []float64
}

// NewLift computes the lift of points and edges. It returns ErrInsufficientInput when
// points is empty and ErrNonFinite when any coordinate is NaN or infinite.
func NewLift(points []geom.Point, edges []geom.Edge, setters ...LiftOption) (*Lift, error) {
	opts := LiftOptions{Range: DefaultRange}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	if len(points) == 0 {
		return nil, ErrInsufficientInput
	}
	for _, p := range points {
		if !p.IsFinite() {
			return nil, ErrNonFinite
		}
	}
	for _, e := range edges {
		if !e.IsFinite() {
			return nil, ErrNonFinite
		}
	}

	c, err := geom.Centroid(points)
	if err != nil {
		return nil, err
	}

	numPoints := len(points)
	l := &Lift{
		Centroid:   c,
		Range:      opts.Range,
		Points:     make([]r3.Vector, numPoints),
		Edges:      make([][2]r3.Vector, len(edges)),
		RawHeights: make([]float64, 0, numPoints+2*len(edges)),
	}

	for i, p := range points {
		l.Points[i] = center(p, c)
		l.RawHeights = append(l.RawHeights, paraboloid(l.Points[i]))
	}
	for i, e := range edges {
		l.Edges[i] = [2]r3.Vector{center(e.Start(), c), center(e.End(), c)}
		l.RawHeights = append(l.RawHeights, paraboloid(l.Edges[i][0]), paraboloid(l.Edges[i][1]))
	}

	l.Heights, err = Normalize(l.RawHeights, opts.Range)
	if err != nil {
		return nil, err
	}

	for i := range l.Points {
		l.Points[i].Z = l.Heights[i]
	}
	for i := range l.Edges {
		h1, h2 := l.EdgeHeights(i)
		l.Edges[i][0].Z = h1
		l.Edges[i][1].Z = h2
	}

	return l, nil
}

func (l *Lift) NumPoints() int {
	return len(l.Points)
}

func (l *Lift) NumEdges() int {
	return len(l.Edges)
}

// PointHeight returns the normalized height of point i.
func (l *Lift) PointHeight(i int) float64 {
	if i < 0 || i >= len(l.Points) {
		panic("PointHeight: index out of range")
	}
	return l.Heights[i]
}

// EdgeHeights returns the normalized heights of the start and end of edge i.
func (l *Lift) EdgeHeights(i int) (float64, float64) {
	if i < 0 || i >= len(l.Edges) {
		panic("EdgeHeights: index out of range")
	}
	base := len(l.Points) + 2*i
	return l.Heights[base], l.Heights[base+1]
}

// MinHeight returns the lowest normalized height across points and edge endpoints.
func (l *Lift) MinHeight() float64 {
	m := l.Heights[0]
	for _, h := range l.Heights[1:] {
		m = min(m, h)
	}
	return m
}

func center(p, c geom.Point) r3.Vector {
	return r3.Vector{X: p.X - c.X, Y: p.Y - c.Y}
}

func paraboloid(v r3.Vector) float64 {
	return v.X*v.X + v.Y*v.Y
}
