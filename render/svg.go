// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/2dChan/liftview/viewport"
	svg "github.com/ajstarks/svgo"
)

// SVG keeps the last drawn frame and encodes it on demand. It is safe for concurrent use.
type SVG struct {
	mu     sync.Mutex
	width  int
	height int
	last   *viewport.Frame
	closed bool
}

func NewSVG(width, height int) (*SVG, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &SVG{width: width, height: height}, nil
}

func (s *SVG) Size() (int, int) {
	return s.width, s.height
}

func (s *SVG) Draw(f *viewport.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.last = f
	return nil
}

// Encode writes the last drawn frame as an SVG document.
func (s *SVG) Encode(w io.Writer) error {
	s.mu.Lock()
	f := s.last
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if f == nil {
		return ErrNoFrame
	}
	return encodeFrame(w, f)
}

func (s *SVG) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.last = nil
	return nil
}

func encodeFrame(w io.Writer, f *viewport.Frame) error {
	ew := &errWriter{w: w}
	c := svg.New(ew)
	c.Start(f.Width, f.Height)
	c.Rect(0, 0, f.Width, f.Height, "fill:"+f.Background)
	for it := range paintOrder(f) {
		if m := it.marker; m != nil {
			r := max(1, int(math.Round(m.R)))
			c.Circle(px(m.X), px(m.Y), r, "fill:"+m.Color)
			continue
		}
		sg := it.segment
		style := fmt.Sprintf("stroke:%s;stroke-width:%d", sg.Color, lineWidth)
		if sg.Dashed() {
			style += fmt.Sprintf(";stroke-dasharray:%g,%g", sg.Dash[0], sg.Dash[1])
		}
		c.Line(px(sg.X1), px(sg.Y1), px(sg.X2), px(sg.Y2), style)
	}
	c.End()
	return ew.err
}

func px(v float64) int {
	return int(math.Round(v))
}
