// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package scene composes the renderable 3D primitives of a lifted point set: markers for the
// lifted points, the hull edges between them, their shadow on a floor plane below the hull and
// dashed drop lines connecting each point to its shadow.
package scene

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/2dChan/liftview"
	"github.com/golang/geo/r3"
)

const (
	defaultFloorMargin = 50
)

var (
	ErrNilLift   = errors.New("scene: nil lift")
	ErrNonFinite = errors.New("scene: non-finite vertex")
)

type Kind int

const (
	KindMarker Kind = iota
	KindHullEdge
	KindShadowEdge
	KindDropLine
)

func (k Kind) String() string {
	switch k {
	case KindMarker:
		return "marker"
	case KindHullEdge:
		return "hull-edge"
	case KindShadowEdge:
		return "shadow-edge"
	case KindDropLine:
		return "drop-line"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Style holds the colours and sizes used for each primitive kind.
type Style struct {
	Background   string
	MarkerColor  string
	MarkerRadius float64
	HullColor    string
	ShadowColor  string
	DropColor    string
	DashSize     float64
	GapSize      float64
}

func DefaultStyle() Style {
	return Style{
		Background:   "#000000",
		MarkerColor:  "#F92C85",
		MarkerRadius: 5,
		HullColor:    "#FFA3CB",
		ShadowColor:  "#FFC7DF",
		DropColor:    "#FFC7DF",
		DashSize:     3,
		GapSize:      2,
	}
}

// Primitive is one drawable element of a Scene.
type Primitive struct {
	Kind Kind
	// Index of the source point (markers, drop lines) or edge (hull and shadow edges).
	Index int
	// One vertex for markers, two for lines.
	Vertices []r3.Vector
	Color    string
	Radius   float64
	// Dash and gap lengths; zero for solid lines.
	Dash [2]float64
}

func (p Primitive) Dashed() bool {
	return p.Dash[0] > 0
}

type Counts struct {
	Markers     int
	HullEdges   int
	ShadowEdges int
	DropLines   int
}

// Scene owns every primitive derived from one Lift.
// It must be released once superseded.
type Scene struct {
	FloorZ     float64
	Background string

	Markers     []Primitive
	HullEdges   []Primitive
	ShadowEdges []Primitive
	DropLines   []Primitive

	alloc    *Allocator
	released bool
}

// Primitives iterates over every primitive of the scene.
// Draw order carries no meaning.
func (s *Scene) Primitives() iter.Seq[Primitive] {
	return func(yield func(Primitive) bool) {
		for _, group := range [][]Primitive{s.ShadowEdges, s.DropLines, s.HullEdges, s.Markers} {
			for _, p := range group {
				if !yield(p) {
					return
				}
			}
		}
	}
}

func (s *Scene) Counts() Counts {
	return Counts{
		Markers:     len(s.Markers),
		HullEdges:   len(s.HullEdges),
		ShadowEdges: len(s.ShadowEdges),
		DropLines:   len(s.DropLines),
	}
}

// Bounds returns the corners of the axis-aligned box holding every vertex.
// An empty or released scene returns two zero vectors.
func (s *Scene) Bounds() (lo, hi r3.Vector) {
	first := true
	for p := range s.Primitives() {
		for _, v := range p.Vertices {
			if first {
				lo, hi, first = v, v, false
				continue
			}
			lo = r3.Vector{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
			hi = r3.Vector{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
		}
	}
	return lo, hi
}

// Release returns every vertex buffer to the allocator. Release is idempotent.
func (s *Scene) Release() {
	if s == nil || s.released {
		return
	}
	s.released = true
	for _, group := range [][]Primitive{s.Markers, s.HullEdges, s.ShadowEdges, s.DropLines} {
		for i := range group {
			s.alloc.free(group[i].Vertices)
			group[i].Vertices = nil
		}
	}
	s.Markers, s.HullEdges, s.ShadowEdges, s.DropLines = nil, nil, nil, nil
}

func (s *Scene) Released() bool {
	return s.released
}

type ComposerOptions struct {
	FloorMargin float64
	Style       Style
}

type ComposerOption func(*ComposerOptions) error

// WithFloorMargin sets how far below the lowest lifted height the floor plane sits.
func WithFloorMargin(margin float64) ComposerOption {
	return func(o *ComposerOptions) error {
		if !(margin > 0) || math.IsInf(margin, 0) {
			return fmt.Errorf("WithFloorMargin: margin must be positive and finite, got %v", margin)
		}
		o.FloorMargin = margin
		return nil
	}
}

func WithStyle(style Style) ComposerOption {
	return func(o *ComposerOptions) error {
		o.Style = style
		return nil
	}
}

// Composer turns lifts into scenes, drawing vertex buffers from a shared Allocator.
type Composer struct {
	opts  ComposerOptions
	alloc *Allocator
}

// NewComposer returns a Composer allocating from alloc. A nil alloc gets a private one.
func NewComposer(alloc *Allocator, setters ...ComposerOption) (*Composer, error) {
	opts := ComposerOptions{
		FloorMargin: defaultFloorMargin,
		Style:       DefaultStyle(),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	if alloc == nil {
		alloc = new(Allocator)
	}
	return &Composer{opts: opts, alloc: alloc}, nil
}

func (c *Composer) Allocator() *Allocator {
	return c.alloc
}

func (c *Composer) Options() ComposerOptions {
	return c.opts
}

// Compose builds the scene of l. The floor sits at l.MinHeight() minus the floor margin,
// strictly below every lifted height.
func (c *Composer) Compose(l *liftview.Lift) (*Scene, error) {
	if l == nil {
		return nil, ErrNilLift
	}

	style := c.opts.Style
	floorZ := l.MinHeight() - c.opts.FloorMargin
	s := &Scene{
		FloorZ:      floorZ,
		Background:  style.Background,
		Markers:     make([]Primitive, 0, l.NumPoints()),
		HullEdges:   make([]Primitive, 0, l.NumEdges()),
		ShadowEdges: make([]Primitive, 0, l.NumEdges()),
		DropLines:   make([]Primitive, 0, l.NumPoints()),
		alloc:       c.alloc,
	}

	for i, p := range l.Points {
		s.Markers = append(s.Markers, Primitive{
			Kind:     KindMarker,
			Index:    i,
			Vertices: c.alloc.vertices(p),
			Color:    style.MarkerColor,
			Radius:   style.MarkerRadius,
		})
		s.DropLines = append(s.DropLines, Primitive{
			Kind:     KindDropLine,
			Index:    i,
			Vertices: c.alloc.vertices(onFloor(p, floorZ), p),
			Color:    style.DropColor,
			Dash:     [2]float64{style.DashSize, style.GapSize},
		})
	}

	for i, e := range l.Edges {
		s.HullEdges = append(s.HullEdges, Primitive{
			Kind:     KindHullEdge,
			Index:    i,
			Vertices: c.alloc.vertices(e[0], e[1]),
			Color:    style.HullColor,
		})
		s.ShadowEdges = append(s.ShadowEdges, Primitive{
			Kind:     KindShadowEdge,
			Index:    i,
			Vertices: c.alloc.vertices(onFloor(e[0], floorZ), onFloor(e[1], floorZ)),
			Color:    style.ShadowColor,
		})
	}

	for p := range s.Primitives() {
		for _, v := range p.Vertices {
			if !isFinite(v) {
				s.Release()
				return nil, ErrNonFinite
			}
		}
	}

	return s, nil
}

func onFloor(v r3.Vector, floorZ float64) r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: floorZ}
}

func isFinite(v r3.Vector) bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
