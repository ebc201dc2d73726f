// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"fmt"
	"io"
	"sync"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/viewport"
	"github.com/gogpu/gg"
)

const (
	lineWidth = 1
)

// Raster draws frames into a gg context. It is safe for concurrent use.
type Raster struct {
	mu     sync.Mutex
	width  int
	height int
	dc     *gg.Context
	drawn  uint64
	closed bool
}

func NewRaster(width, height int) (*Raster, error) {
	if err := checkSize(width, height); err != nil {
		return nil, err
	}
	return &Raster{
		width:  width,
		height: height,
		dc:     gg.NewContext(width, height),
	}, nil
}

func (r *Raster) Size() (int, int) {
	return r.width, r.height
}

// Draw replaces the image with f.
func (r *Raster) Draw(f *viewport.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	dc := r.dc
	dc.ClearWithColor(gg.Hex(f.Background))
	dc.SetLineWidth(lineWidth)
	for it := range paintOrder(f) {
		if m := it.marker; m != nil {
			dc.SetHexColor(m.Color)
			dc.DrawCircle(m.X, m.Y, m.R)
			if err := dc.Fill(); err != nil {
				return fmt.Errorf("render: fill marker %d: %w", m.Source, err)
			}
			continue
		}
		s := it.segment
		dc.SetHexColor(s.Color)
		if s.Dashed() {
			dc.SetDash(s.Dash[0], s.Dash[1])
		} else {
			dc.ClearDash()
		}
		dc.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
		if err := dc.Stroke(); err != nil {
			return fmt.Errorf("render: stroke %v %d: %w", s.Kind, s.Source, err)
		}
	}
	dc.ClearDash()
	r.drawn = f.Number
	return nil
}

// Frame returns the number of the last drawn frame, zero if none.
func (r *Raster) Frame() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drawn
}

// EncodePNG writes the last drawn frame as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.drawn == 0 {
		return ErrNoFrame
	}
	return r.dc.EncodePNG(w)
}

// Close releases the gg context. Close is idempotent.
func (r *Raster) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	liftview.Logger().Debug("render: raster closed", "frames", r.drawn)
	return r.dc.Close()
}
