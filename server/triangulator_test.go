// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/triangulator"
	"github.com/goccy/go-json"
)

func TestTriangulatorRouter(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		status    int
		wantEdges int
	}{
		{"request object", `{"points":[{"x":0,"y":0},{"x":10,"y":0},{"x":0,"y":10}]}`, http.StatusOK, 3},
		{"bare array", `[{"x":0,"y":0},{"x":10,"y":0},{"x":0,"y":10},{"x":10,"y":10.5}]`, http.StatusOK, 5},
		{"empty points", `{"points":[]}`, http.StatusOK, 0},
		{"single point", `[{"x":1,"y":1}]`, http.StatusOK, 0},
		{"empty body", ``, http.StatusBadRequest, 0},
		{"malformed", `{"points":[{"x":"a"}]}`, http.StatusBadRequest, 0},
	}
	h := NewTriangulatorRouter(triangulator.DefaultPath)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, triangulator.DefaultPath, tt.body)
			if w.Code != tt.status {
				t.Fatalf("POST %s status = %v, want %v (%s)", triangulator.DefaultPath, w.Code, tt.status,
					w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var edges []geom.Edge
			if err := json.Unmarshal(w.Body.Bytes(), &edges); err != nil {
				t.Fatalf("json.Unmarshal(%s) error = %v, want nil", w.Body.String(), err)
			}
			if edges == nil {
				t.Errorf("response = null, want an array")
			}
			if len(edges) != tt.wantEdges {
				t.Errorf("len(edges) = %v, want %v", len(edges), tt.wantEdges)
			}
		})
	}
}

func TestTriangulatorRouter_WithClient(t *testing.T) {
	srv := httptest.NewServer(NewTriangulatorRouter(triangulator.DefaultPath))
	defer srv.Close()

	c, err := triangulator.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("triangulator.NewClient(%q) error = %v, want nil", srv.URL, err)
	}
	edges, err := c.Triangulate(context.Background(), []geom.Point{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}})
	if err != nil {
		t.Fatalf("c.Triangulate(...) error = %v, want nil", err)
	}
	if len(edges) != 3 {
		t.Errorf("len(edges) = %v, want 3", len(edges))
	}
}

func TestDecodePoints(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		wantErr bool
	}{
		{"object", `{"points":[{"x":1,"y":2}]}`, 1, false},
		{"array with spaces", "  \n[{\"x\":1,\"y\":2},{\"x\":3,\"y\":4}]", 2, false},
		{"blank", "   ", 0, true},
		{"garbage", "points", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodePoints([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodePoints(%q) error = %v, wantErr %v", tt.body, err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("len(decodePoints(%q)) = %v, want %v", tt.body, len(got), tt.want)
			}
		})
	}
	if _, err := decodePoints([]byte(strings.Repeat(" ", 3))); err != errEmptyBody {
		t.Errorf("decodePoints(blank) error = %v, want %v", err, errEmptyBody)
	}
}
