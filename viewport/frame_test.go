// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package viewport

import (
	"testing"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/scene"
)

func TestProject_BackToFront(t *testing.T) {
	points := []geom.Point{{X: 0, Y: 0}, {X: 100, Y: -100}, {X: -100, Y: 100}, {X: 50, Y: 50}}
	edges := []geom.Edge{
		geom.EdgeBetween(points[0], points[1]),
		geom.EdgeBetween(points[0], points[2]),
		geom.EdgeBetween(points[2], points[3]),
	}
	l, err := liftview.NewLift(points, edges)
	if err != nil {
		t.Fatalf("NewLift(...) error = %v, want nil", err)
	}
	c, err := scene.NewComposer(nil)
	if err != nil {
		t.Fatalf("NewComposer(...) error = %v, want nil", err)
	}
	s, err := c.Compose(l)
	if err != nil {
		t.Fatalf("c.Compose(...) error = %v, want nil", err)
	}
	defer s.Release()

	markers, segments := project(s, mustNewCamera(t, DefaultCameraOptions()), 500, 500)
	if len(markers) != len(points) {
		t.Fatalf("len(markers) = %v, want %v", len(markers), len(points))
	}
	if want := 2*len(edges) + len(points); len(segments) != want {
		t.Fatalf("len(segments) = %v, want %v", len(segments), want)
	}
	for i := 1; i < len(markers); i++ {
		if markers[i-1].Depth < markers[i].Depth {
			t.Errorf("markers[%d] depth %v before deeper markers[%d] %v", i-1, markers[i-1].Depth, i,
				markers[i].Depth)
		}
	}
	for i := 1; i < len(segments); i++ {
		if segments[i-1].Depth < segments[i].Depth {
			t.Errorf("segments not sorted back to front at %d", i)
		}
	}

	dashed := 0
	for _, seg := range segments {
		if seg.Dashed() {
			dashed++
			if seg.Kind != scene.KindDropLine {
				t.Errorf("dashed segment of kind %v, want %v", seg.Kind, scene.KindDropLine)
			}
		}
	}
	if dashed != len(points) {
		t.Errorf("dashed segments = %v, want %v", dashed, len(points))
	}
}

func TestProject_NilScene(t *testing.T) {
	markers, segments := project(nil, mustNewCamera(t, DefaultCameraOptions()), 500, 500)
	if markers != nil || segments != nil {
		t.Errorf("project(nil, ...) = %v, %v, want nil, nil", markers, segments)
	}
}
