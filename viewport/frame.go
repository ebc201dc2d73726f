// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package viewport

import (
	"cmp"
	"io"
	"slices"

	"github.com/2dChan/liftview/scene"
)

// Surface is a render target owned by a Controller between Open and Close.
type Surface interface {
	Size() (width, height int)
	Draw(f *Frame) error
	io.Closer
}

// Marker is a projected point primitive.
type Marker struct {
	X, Y   float64
	R      float64
	Depth  float64
	Color  string
	Source int
}

// Segment is a projected line primitive.
type Segment struct {
	X1, Y1 float64
	X2, Y2 float64
	Depth  float64
	Color  string
	Kind   scene.Kind
	// Dash and gap lengths in pixels; zero for solid lines.
	Dash   [2]float64
	Source int
}

func (s Segment) Dashed() bool {
	return s.Dash[0] > 0
}

// Frame is one projected image of a scene, sorted back to front.
type Frame struct {
	Number     uint64
	Version    uint64
	Width      int
	Height     int
	Background string
	Markers    []Marker
	Segments   []Segment
}

// Empty reports whether the frame carries no 3D primitives.
func (f *Frame) Empty() bool {
	return len(f.Markers) == 0 && len(f.Segments) == 0
}

func project(s *scene.Scene, cam *Camera, width, height int) ([]Marker, []Segment) {
	if s == nil {
		return nil, nil
	}
	counts := s.Counts()
	markers := make([]Marker, 0, counts.Markers)
	segments := make([]Segment, 0, counts.HullEdges+counts.ShadowEdges+counts.DropLines)

	for p := range s.Primitives() {
		switch len(p.Vertices) {
		case 1:
			sp, ok := cam.Project(p.Vertices[0], width, height)
			if !ok {
				continue
			}
			markers = append(markers, Marker{
				X:      sp.X,
				Y:      sp.Y,
				R:      cam.ScreenRadius(p.Radius, sp.Depth, height),
				Depth:  sp.Depth,
				Color:  p.Color,
				Source: p.Index,
			})
		case 2:
			a, b, ok := cam.ProjectSegment(p.Vertices[0], p.Vertices[1], width, height)
			if !ok {
				continue
			}
			segments = append(segments, Segment{
				X1:     a.X,
				Y1:     a.Y,
				X2:     b.X,
				Y2:     b.Y,
				Depth:  (a.Depth + b.Depth) / 2,
				Color:  p.Color,
				Kind:   p.Kind,
				Dash:   p.Dash,
				Source: p.Index,
			})
		}
	}

	slices.SortStableFunc(markers, func(a, b Marker) int { return cmp.Compare(b.Depth, a.Depth) })
	slices.SortStableFunc(segments, func(a, b Segment) int { return cmp.Compare(b.Depth, a.Depth) })
	return markers, segments
}
