// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package viewport

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

const (
	defaultFOV           = 75 * math.Pi / 180
	defaultNear          = 0.1
	defaultMinDistance   = 5
	defaultMaxDistance   = 10000
	defaultMaxPolarAngle = math.Pi / 2
	defaultDampingFactor = 0.05

	// A Y-up camera at (500, 0, 500) looking at a scene turned -π/2 around X sits at
	// (500, -500, 0) in the scene's Z-up frame.
	defaultAzimuth = -math.Pi / 4
	defaultPolar   = math.Pi / 2

	minPolarAngle = 1e-6
	settleEps     = 1e-9
)

var (
	defaultRadius = 500 * math.Sqrt2
	worldUp       = r3.Vector{Z: 1}
)

type CameraOptions struct {
	// Vertical field of view in radians.
	FOV           float64
	Near          float64
	MinDistance   float64
	MaxDistance   float64
	MaxPolarAngle float64
	DampingFactor float64
}

func DefaultCameraOptions() CameraOptions {
	return CameraOptions{
		FOV:           defaultFOV,
		Near:          defaultNear,
		MinDistance:   defaultMinDistance,
		MaxDistance:   defaultMaxDistance,
		MaxPolarAngle: defaultMaxPolarAngle,
		DampingFactor: defaultDampingFactor,
	}
}

func (o CameraOptions) validate() error {
	switch {
	case !(o.FOV > 0 && o.FOV < math.Pi):
		return fmt.Errorf("viewport: FOV %v out of range (0, π)", o.FOV)
	case !(o.Near > 0):
		return fmt.Errorf("viewport: Near %v must be positive", o.Near)
	case !(o.MinDistance > 0 && o.MinDistance <= o.MaxDistance):
		return fmt.Errorf("viewport: distance range [%v, %v] invalid", o.MinDistance, o.MaxDistance)
	case !(o.MaxPolarAngle > minPolarAngle && o.MaxPolarAngle <= math.Pi):
		return fmt.Errorf("viewport: MaxPolarAngle %v out of range", o.MaxPolarAngle)
	case !(o.DampingFactor > 0 && o.DampingFactor <= 1):
		return fmt.Errorf("viewport: DampingFactor %v out of range (0, 1]", o.DampingFactor)
	}
	return nil
}

// Camera is an orbit camera around a target point with Z up. Rotation and panning are damped:
// input accumulates and each Update applies a DampingFactor share of what is pending.
type Camera struct {
	opts CameraOptions

	target  r3.Vector
	radius  float64
	azimuth float64
	polar   float64

	pendingAzimuth float64
	pendingPolar   float64
	pendingPan     r3.Vector
	pendingZoom    float64
}

// ScreenPoint is a projected position in surface pixels, with the view depth of the source.
type ScreenPoint struct {
	X, Y  float64
	Depth float64
}

func NewCamera(opts CameraOptions) (*Camera, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	c := &Camera{opts: opts}
	c.Reset()
	return c, nil
}

// Reset returns the camera to its initial pose and drops pending input.
func (c *Camera) Reset() {
	c.target = r3.Vector{}
	c.radius = defaultRadius
	c.azimuth = defaultAzimuth
	c.polar = min(defaultPolar, c.opts.MaxPolarAngle)
	c.pendingAzimuth, c.pendingPolar = 0, 0
	c.pendingPan = r3.Vector{}
	c.pendingZoom = 1
	c.clamp()
}

func (c *Camera) Target() r3.Vector {
	return c.target
}

func (c *Camera) Distance() float64 {
	return c.radius
}

// Angles returns the azimuth around Z and the polar angle from +Z, in radians.
func (c *Camera) Angles() (azimuth, polar float64) {
	return c.azimuth, c.polar
}

func (c *Camera) Position() r3.Vector {
	sinP := math.Sin(c.polar)
	offset := r3.Vector{
		X: c.radius * sinP * math.Cos(c.azimuth),
		Y: c.radius * sinP * math.Sin(c.azimuth),
		Z: c.radius * math.Cos(c.polar),
	}
	return c.target.Add(offset)
}

// Rotate queues an orbit of dAzimuth around the up axis and dPolar towards it.
func (c *Camera) Rotate(dAzimuth, dPolar float64) {
	if !finite(dAzimuth) || !finite(dPolar) {
		return
	}
	c.pendingAzimuth += dAzimuth
	c.pendingPolar += dPolar
}

// Zoom queues a dolly by scale: values above 1 move closer, values below 1 move away.
func (c *Camera) Zoom(scale float64) {
	if !finite(scale) || scale <= 0 {
		return
	}
	c.pendingZoom *= scale
}

// Pan queues a target shift of dx along the view's right vector and dy along the view's
// forward direction projected on the ground plane.
func (c *Camera) Pan(dx, dy float64) {
	if !finite(dx) || !finite(dy) {
		return
	}
	right, forward := c.groundAxes()
	c.pendingPan = c.pendingPan.Add(right.Mul(dx)).Add(forward.Mul(dy))
}

// Update applies one damped step of pending input. It reports whether the pose changed.
func (c *Camera) Update() bool {
	d := c.opts.DampingFactor
	before := [3]float64{c.azimuth, c.polar, c.radius}
	beforeTarget := c.target

	c.azimuth += c.pendingAzimuth * d
	c.polar += c.pendingPolar * d
	c.radius /= c.pendingZoom
	c.target = c.target.Add(c.pendingPan.Mul(d))
	c.clamp()

	c.pendingAzimuth *= 1 - d
	c.pendingPolar *= 1 - d
	c.pendingPan = c.pendingPan.Mul(1 - d)
	c.pendingZoom = 1
	if math.Abs(c.pendingAzimuth) < settleEps {
		c.pendingAzimuth = 0
	}
	if math.Abs(c.pendingPolar) < settleEps {
		c.pendingPolar = 0
	}
	if c.pendingPan.Norm() < settleEps {
		c.pendingPan = r3.Vector{}
	}

	after := [3]float64{c.azimuth, c.polar, c.radius}
	return before != after || beforeTarget != c.target
}

// Settled reports whether no input is pending.
func (c *Camera) Settled() bool {
	return c.pendingAzimuth == 0 && c.pendingPolar == 0 && c.pendingPan == (r3.Vector{}) &&
		c.pendingZoom == 1
}

// Project maps v onto a width x height surface. It reports false for points at or behind
// the near plane.
func (c *Camera) Project(v r3.Vector, width, height int) (ScreenPoint, bool) {
	eye := c.Position()
	right, up, forward := c.basis(eye)
	d := v.Sub(eye)
	depth := d.Dot(forward)
	if depth < c.opts.Near {
		return ScreenPoint{}, false
	}
	f := c.focal(height)
	sp := ScreenPoint{
		X:     float64(width)/2 + d.Dot(right)/depth*f,
		Y:     float64(height)/2 - d.Dot(up)/depth*f,
		Depth: depth,
	}
	if !finite(sp.X) || !finite(sp.Y) {
		return ScreenPoint{}, false
	}
	return sp, true
}

// ProjectSegment projects the segment a-b, clipping it against the near plane.
func (c *Camera) ProjectSegment(a, b r3.Vector, width, height int) (ScreenPoint, ScreenPoint, bool) {
	eye := c.Position()
	_, _, forward := c.basis(eye)
	da, db := a.Sub(eye).Dot(forward), b.Sub(eye).Dot(forward)
	// Clip slightly in front of the near plane so rounding keeps the endpoint visible.
	clip := c.opts.Near * (1 + 1e-6)
	if da < clip && db < clip {
		return ScreenPoint{}, ScreenPoint{}, false
	}
	switch {
	case da < clip:
		a = a.Add(b.Sub(a).Mul((clip - da) / (db - da)))
	case db < clip:
		b = b.Add(a.Sub(b).Mul((clip - db) / (da - db)))
	}
	pa, okA := c.Project(a, width, height)
	pb, okB := c.Project(b, width, height)
	return pa, pb, okA && okB
}

// ScreenRadius returns the projected pixel radius of a sphere of radius r at depth.
func (c *Camera) ScreenRadius(r, depth float64, height int) float64 {
	if depth <= 0 {
		return 0
	}
	return r * c.focal(height) / depth
}

func (c *Camera) focal(height int) float64 {
	return float64(height) / 2 / math.Tan(c.opts.FOV/2)
}

func (c *Camera) basis(eye r3.Vector) (right, up, forward r3.Vector) {
	forward = c.target.Sub(eye).Normalize()
	right = forward.Cross(worldUp)
	if right.Norm() < settleEps {
		right = r3.Vector{X: -math.Sin(c.azimuth), Y: math.Cos(c.azimuth)}
	}
	right = right.Normalize()
	up = right.Cross(forward)
	return right, up, forward
}

func (c *Camera) groundAxes() (right, forward r3.Vector) {
	right = r3.Vector{X: -math.Sin(c.azimuth), Y: math.Cos(c.azimuth)}
	forward = r3.Vector{X: -math.Cos(c.azimuth), Y: -math.Sin(c.azimuth)}
	return right, forward
}

func (c *Camera) clamp() {
	c.polar = max(minPolarAngle, min(c.opts.MaxPolarAngle, c.polar))
	c.radius = max(c.opts.MinDistance, min(c.opts.MaxDistance, c.radius))
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
