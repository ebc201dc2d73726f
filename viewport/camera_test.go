// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package viewport

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
)

func TestCameraOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*CameraOptions)
		wantErr bool
	}{
		{"default", func(*CameraOptions) {}, false},
		{"zero fov", func(o *CameraOptions) { o.FOV = 0 }, true},
		{"zero near", func(o *CameraOptions) { o.Near = 0 }, true},
		{"inverted distance", func(o *CameraOptions) { o.MinDistance, o.MaxDistance = 10, 5 }, true},
		{"zero damping", func(o *CameraOptions) { o.DampingFactor = 0 }, true},
		{"no damping", func(o *CameraOptions) { o.DampingFactor = 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultCameraOptions()
			tt.mutate(&opts)
			_, err := NewCamera(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewCamera(...) error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCamera_InitialPose(t *testing.T) {
	c := mustNewCamera(t, DefaultCameraOptions())
	want := r3.Vector{X: 500, Y: -500}
	if got := c.Position(); got.Sub(want).Norm() > 1e-9 {
		t.Errorf("c.Position() = %v, want %v", got, want)
	}

	// The origin projects onto the centre of the surface.
	sp, ok := c.Project(r3.Vector{}, 500, 500)
	if !ok {
		t.Fatalf("c.Project(origin) ok = false, want true")
	}
	if math.Abs(sp.X-250) > 1e-9 || math.Abs(sp.Y-250) > 1e-9 {
		t.Errorf("c.Project(origin) = (%v, %v), want (250, 250)", sp.X, sp.Y)
	}
	if math.Abs(sp.Depth-defaultRadius) > 1e-9 {
		t.Errorf("c.Project(origin).Depth = %v, want %v", sp.Depth, defaultRadius)
	}
}

func TestCamera_ProjectUpIsUp(t *testing.T) {
	c := mustNewCamera(t, DefaultCameraOptions())
	low, _ := c.Project(r3.Vector{Z: -100}, 500, 500)
	high, _ := c.Project(r3.Vector{Z: 100}, 500, 500)
	if !(high.Y < low.Y) {
		t.Errorf("screen y of z=100 (%v) not above z=-100 (%v)", high.Y, low.Y)
	}
}

func TestCamera_ProjectBehind(t *testing.T) {
	c := mustNewCamera(t, DefaultCameraOptions())
	behind := c.Position().Mul(2)
	if _, ok := c.Project(behind, 500, 500); ok {
		t.Errorf("c.Project(behind camera) ok = true, want false")
	}

	a, b, ok := c.ProjectSegment(r3.Vector{}, behind, 500, 500)
	if !ok {
		t.Fatalf("c.ProjectSegment(origin, behind) ok = false, want clipped segment")
	}
	for _, p := range []ScreenPoint{a, b} {
		if !finite(p.X) || !finite(p.Y) || p.Depth < DefaultCameraOptions().Near {
			t.Errorf("clipped endpoint = %+v, want finite and in front of the near plane", p)
		}
	}

	if _, _, ok := c.ProjectSegment(behind, behind.Mul(2), 500, 500); ok {
		t.Errorf("c.ProjectSegment(behind, behind) ok = true, want false")
	}
}

func TestCamera_DampedRotate(t *testing.T) {
	c := mustNewCamera(t, DefaultCameraOptions())
	az0, _ := c.Angles()
	c.Rotate(1, 0)

	if !c.Update() {
		t.Fatalf("c.Update() = false, want true")
	}
	az1, _ := c.Angles()
	if got, want := az1-az0, defaultDampingFactor; math.Abs(got-want) > 1e-12 {
		t.Errorf("first step azimuth delta = %v, want %v", got, want)
	}

	for range 2000 {
		c.Update()
	}
	az, _ := c.Angles()
	if math.Abs(az-az0-1) > 1e-6 {
		t.Errorf("settled azimuth delta = %v, want 1", az-az0)
	}
	if !c.Settled() {
		t.Errorf("c.Settled() = false, want true")
	}
}

func TestCamera_Clamps(t *testing.T) {
	c := mustNewCamera(t, DefaultCameraOptions())

	c.Zoom(1e9)
	c.Update()
	if got := c.Distance(); got != defaultMinDistance {
		t.Errorf("c.Distance() after zoom in = %v, want %v", got, defaultMinDistance)
	}

	c.Zoom(1e-9)
	c.Update()
	if got := c.Distance(); got != defaultMaxDistance {
		t.Errorf("c.Distance() after zoom out = %v, want %v", got, defaultMaxDistance)
	}

	c.Reset()
	c.Rotate(0, 100)
	for range 100 {
		c.Update()
	}
	if _, polar := c.Angles(); polar > defaultMaxPolarAngle {
		t.Errorf("polar = %v, want <= %v", polar, defaultMaxPolarAngle)
	}

	c.Zoom(math.NaN())
	c.Rotate(math.Inf(1), 0)
	c.Update()
	if p := c.Position(); !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
		t.Errorf("c.Position() = %v after non-finite input, want finite", p)
	}
}

func TestCamera_PanMovesTarget(t *testing.T) {
	opts := DefaultCameraOptions()
	opts.DampingFactor = 1
	c := mustNewCamera(t, opts)

	c.Pan(10, 0)
	c.Update()
	target := c.Target()
	if math.Abs(target.Norm()-10) > 1e-9 || target.Z != 0 {
		t.Errorf("c.Target() = %v, want a horizontal shift of 10", target)
	}
}

// Helpers

func mustNewCamera(t *testing.T, opts CameraOptions) *Camera {
	t.Helper()
	c, err := NewCamera(opts)
	if err != nil {
		t.Fatalf("NewCamera(...) error = %v, want nil", err)
	}
	return c
}
