// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package canvas

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/2dChan/liftview/geom"
)

func TestWithSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantErr       bool
	}{
		{"valid", 640, 480, false},
		{"zero width", 0, 480, true},
		{"negative height", 640, -1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &Options{}
			err := WithSize(tt.width, tt.height)(opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithSize(%d, %d) error = %v, wantErr %v", tt.width, tt.height, err, tt.wantErr)
			}
		})
	}
}

func TestDraw(t *testing.T) {
	l := Layer{
		Points: []geom.Point{{X: 10, Y: 10}, {X: 100.4, Y: 50.6}},
		Edges:  []geom.Edge{{X1: 10, Y1: 10, X2: 100.4, Y2: 50.6}},
		Hover:  1,
	}
	var buf bytes.Buffer
	if err := Draw(&buf, l); err != nil {
		t.Fatalf("Draw(...) error = %v, want nil", err)
	}
	out := buf.String()

	wants := []string{
		`width="500" height="500"`,
		"fill:#FFFAE5",
		`<circle cx="10" cy="10" r="5" style="fill:#D1D5DB"`,
		`<circle cx="100" cy="51" r="5" style="fill:#F92C85"`,
		"stroke:blue;stroke-width:1",
		`<line x1="10" y1="10" x2="100" y2="51"`,
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("Draw(...) output does not contain %q", want)
		}
	}
	if got := strings.Count(out, "<circle"); got != len(l.Points) {
		t.Errorf("circles = %v, want %v", got, len(l.Points))
	}
}

func TestDraw_WriteError(t *testing.T) {
	err := Draw(failingWriter{}, Layer{Hover: -1})
	if !errors.Is(err, errWrite) {
		t.Errorf("Draw(failingWriter) error = %v, want %v", err, errWrite)
	}
}

func TestLines(t *testing.T) {
	edges := []geom.Edge{
		{X1: 1, Y1: 2.005, X2: 3.14159, Y2: 4},
		{X1: -10, Y1: 0, X2: 0.5, Y2: 250},
	}
	want := "(1.00, 2.00, 3.14, 4.00)\n(-10.00, 0.00, 0.50, 250.00)\n"
	if got := Lines(edges); got != want {
		t.Errorf("Lines(...) = %q, want %q", got, want)
	}
	if got := Lines(nil); got != "" {
		t.Errorf("Lines(nil) = %q, want empty", got)
	}
}

// Helpers

var errWrite = errors.New("write failed")

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errWrite
}
