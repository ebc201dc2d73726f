// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package render provides viewport surfaces: a raster one backed by gogpu/gg that encodes PNG,
// and a vector one that encodes SVG.
package render

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/2dChan/liftview/viewport"
)

var (
	ErrClosed      = errors.New("render: surface closed")
	ErrInvalidSize = errors.New("render: invalid size")
	ErrNoFrame     = errors.New("render: nothing drawn yet")
)

func checkSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	return nil
}

// item is either a marker or a segment of a frame.
type item struct {
	marker  *viewport.Marker
	segment *viewport.Segment
}

// paintOrder merges the markers and segments of f, both already sorted back to front, into a
// single back-to-front sequence. On equal depth segments come first so markers stay on top.
func paintOrder(f *viewport.Frame) iter.Seq[item] {
	return func(yield func(item) bool) {
		i, j := 0, 0
		for i < len(f.Markers) || j < len(f.Segments) {
			takeSegment := j < len(f.Segments) &&
				(i >= len(f.Markers) || f.Segments[j].Depth >= f.Markers[i].Depth)
			var it item
			if takeSegment {
				it.segment = &f.Segments[j]
				j++
			} else {
				it.marker = &f.Markers[i]
				i++
			}
			if !yield(it) {
				return
			}
		}
	}
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	e.err = err
	return n, err
}
