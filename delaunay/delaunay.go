// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package delaunay computes planar Delaunay triangulations as the lower convex hull of the
// points lifted onto a paraboloid. It backs the reference triangulation service.
package delaunay

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/2dChan/liftview/geom"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/markus-wa/quickhull-go/v2"
)

const (
	defaultEps = 1e-12
)

var ErrNonFinite = errors.New("delaunay: non-finite point")

type Triangulation struct {
	// Distinct input points, in first-seen order.
	Vertices []r2.Point
	// NOTE: Sorted CCW per triangle.
	Triangles [][3]int
	// Vertex index pairs, each with the lower index first, sorted.
	Edges [][2]int
}

type TriangulationOptions struct {
	Eps float64
}

type TriangulationOption func(*TriangulationOptions) error

func WithEps(eps float64) TriangulationOption {
	return func(o *TriangulationOptions) error {
		if eps <= 0 {
			return errors.New("WithEps: eps must be positive")
		}
		o.Eps = eps
		return nil
	}
}

// NewTriangulation triangulates points. Duplicates are merged. Fewer than three distinct
// points, or collinear input, yield no triangles; their edges connect consecutive points along
// the line.
func NewTriangulation(points []geom.Point, setters ...TriangulationOption) (*Triangulation, error) {
	opts := TriangulationOptions{
		Eps: defaultEps,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	dt := &Triangulation{Vertices: make([]r2.Point, 0, len(points))}
	seen := make(map[geom.Point]struct{}, len(points))
	for _, p := range points {
		if !p.IsFinite() {
			return nil, ErrNonFinite
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		dt.Vertices = append(dt.Vertices, p.Vec())
	}

	switch {
	case len(dt.Vertices) < 2:
		return dt, nil
	case collinear(dt.Vertices, opts.Eps):
		dt.Edges = chainEdges(dt.Vertices)
		return dt, nil
	case len(dt.Vertices) == 3:
		dt.Triangles = [][3]int{{0, 1, 2}}
	default:
		tris, err := lowerHull(dt.Vertices, opts.Eps)
		if err != nil {
			return nil, err
		}
		dt.Triangles = tris
	}

	for i := range dt.Triangles {
		sortTriangleVerticesCCW(&dt.Triangles[i], dt.Vertices)
	}
	dt.Edges = triangleEdges(dt.Triangles)
	return dt, nil
}

// TriangleVertices returns the corners of triangle tIdx.
// It panics if tIdx is out of range.
func (dt *Triangulation) TriangleVertices(tIdx int) (r2.Point, r2.Point, r2.Point) {
	if tIdx < 0 || tIdx >= len(dt.Triangles) {
		panic("TriangleVertices: tIdx out of bounds")
	}
	t := dt.Triangles[tIdx]
	return dt.Vertices[t[0]], dt.Vertices[t[1]], dt.Vertices[t[2]]
}

// EdgeSegments returns the edges as coordinate segments, the shape served to clients.
func (dt *Triangulation) EdgeSegments() []geom.Edge {
	out := make([]geom.Edge, len(dt.Edges))
	for i, e := range dt.Edges {
		out[i] = geom.EdgeBetween(geom.PointFromVec(dt.Vertices[e[0]]), geom.PointFromVec(dt.Vertices[e[1]]))
	}
	return out
}

func lowerHull(vertices []r2.Point, eps float64) ([][3]int, error) {
	// Lift around the centroid to keep heights small.
	var c r2.Point
	for _, v := range vertices {
		c = c.Add(v)
	}
	c = c.Mul(1 / float64(len(vertices)))

	lifted := make([]r3.Vector, len(vertices))
	var interior r3.Vector
	for i, v := range vertices {
		d := v.Sub(c)
		lifted[i] = r3.Vector{X: d.X, Y: d.Y, Z: d.Dot(d)}
		interior = interior.Add(lifted[i])
	}
	interior = interior.Mul(1 / float64(len(lifted)))

	qh := new(quickhull.QuickHull)
	ch := qh.ConvexHull(lifted, true, true, eps)
	if len(ch.Indices) == 0 || len(ch.Indices)%3 != 0 {
		return nil, fmt.Errorf("delaunay: inconsistent number of indices returned from QuickHull: %d",
			len(ch.Indices))
	}

	tris := make([][3]int, 0, len(ch.Indices)/3)
	for i := 0; i < len(ch.Indices); i += 3 {
		a, b, d := ch.Indices[i], ch.Indices[i+1], ch.Indices[i+2]
		pa, pb, pd := lifted[a], lifted[b], lifted[d]
		n := pb.Sub(pa).Cross(pd.Sub(pa))
		if n.Dot(pa.Sub(interior)) < 0 {
			n = n.Mul(-1)
		}
		// Faces whose outward normal points down project to Delaunay triangles.
		if n.Z < -eps*n.Norm() {
			tris = append(tris, [3]int{a, b, d})
		}
	}
	if len(tris) == 0 {
		return nil, errors.New("delaunay: lower hull is empty")
	}
	return tris, nil
}

func sortTriangleVerticesCCW(t *[3]int, v []r2.Point) {
	p0, p1, p2 := v[t[0]], v[t[1]], v[t[2]]
	if p1.Sub(p0).Cross(p2.Sub(p0)) < 0 {
		t[1], t[2] = t[2], t[1]
	}
}

func triangleEdges(tris [][3]int) [][2]int {
	set := make(map[[2]int]struct{}, len(tris)*3/2+1)
	for _, t := range tris {
		for j := range 3 {
			a, b := t[j], t[(j+1)%3]
			set[[2]int{min(a, b), max(a, b)}] = struct{}{}
		}
	}
	edges := make([][2]int, 0, len(set))
	for e := range set {
		edges = append(edges, e)
	}
	slices.SortFunc(edges, func(a, b [2]int) int {
		if c := cmp.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return cmp.Compare(a[1], b[1])
	})
	return edges
}

func collinear(v []r2.Point, eps float64) bool {
	// Pick the farthest point from v[0] as the direction to keep the test scale-aware.
	far, farDist := 0, 0.0
	for i := 1; i < len(v); i++ {
		if d := v[i].Sub(v[0]).Norm(); d > farDist {
			far, farDist = i, d
		}
	}
	dir := v[far].Sub(v[0])
	for i := 1; i < len(v); i++ {
		w := v[i].Sub(v[0])
		if math.Abs(dir.Cross(w)) > eps*farDist*math.Max(farDist, w.Norm()) {
			return false
		}
	}
	return true
}

// chainEdges links distinct collinear points in order along their line.
func chainEdges(v []r2.Point) [][2]int {
	dir := v[1].Sub(v[0])
	order := make([]int, len(v))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		return cmp.Compare(v[a].Sub(v[0]).Dot(dir), v[b].Sub(v[0]).Dot(dir))
	})
	edges := make([][2]int, 0, len(v)-1)
	for i := 1; i < len(order); i++ {
		a, b := order[i-1], order[i]
		edges = append(edges, [2]int{min(a, b), max(a, b)})
	}
	return edges
}
