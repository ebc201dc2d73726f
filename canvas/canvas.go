// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package canvas draws the flat 2D board, points and their triangulation, as SVG.
package canvas

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/2dChan/liftview/geom"
	svg "github.com/ajstarks/svgo"
)

const (
	DefaultWidth  = 500
	DefaultHeight = 500
)

var ErrInvalidSize = errors.New("canvas: invalid size")

// Style holds SVG colors and sizes in canvas pixels.
type Style struct {
	Background  string
	Point       string
	Hover       string
	PointRadius int
	Edge        string
	EdgeWidth   float64
}

func DefaultStyle() Style {
	return Style{
		Background:  "#FFFAE5",
		Point:       "#D1D5DB",
		Hover:       "#F92C85",
		PointRadius: 5,
		Edge:        "blue",
		EdgeWidth:   1,
	}
}

// Layer is what the canvas shows: the points, the edges computed for them and the
// highlighted point index, -1 for none.
type Layer struct {
	Points []geom.Point
	Edges  []geom.Edge
	Hover  int
}

type Options struct {
	Width, Height int
	Style         Style
}

type Option func(*Options) error

func WithSize(width, height int) Option {
	return func(o *Options) error {
		if width <= 0 || height <= 0 {
			return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
		}
		o.Width, o.Height = width, height
		return nil
	}
}

func WithStyle(style Style) Option {
	return func(o *Options) error {
		o.Style = style
		return nil
	}
}

// Draw writes l as a standalone SVG document. Points are drawn below the edges.
func Draw(w io.Writer, l Layer, setters ...Option) error {
	opts := Options{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Style:  DefaultStyle(),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return err
		}
	}
	st := opts.Style

	ew := &errWriter{w: w}
	c := svg.New(ew)
	c.Start(opts.Width, opts.Height)
	c.Rect(0, 0, opts.Width, opts.Height, "fill:"+st.Background)

	c.Gid("points")
	for i, p := range l.Points {
		fill := st.Point
		if i == l.Hover {
			fill = st.Hover
		}
		x, y := px(p.X), px(p.Y)
		c.Circle(x, y, st.PointRadius, "fill:"+fill)
	}
	c.Gend()

	c.Gstyle(fmt.Sprintf("stroke:%s;stroke-width:%g;fill:none", st.Edge, st.EdgeWidth))
	for _, e := range l.Edges {
		c.Line(px(e.X1), px(e.Y1), px(e.X2), px(e.Y2))
	}
	c.Gend()
	c.End()
	return ew.err
}

// FormatLine renders e as "(x1, y1, x2, y2)" with two decimals.
func FormatLine(e geom.Edge) string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f, %.2f)", e.X1, e.Y1, e.X2, e.Y2)
}

// Lines returns the processed lines listing, one formatted edge per line.
func Lines(edges []geom.Edge) string {
	var sb strings.Builder
	for _, e := range edges {
		sb.WriteString(FormatLine(e))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func px(v float64) int {
	return int(math.Round(v))
}

// errWriter keeps the first write error; svgo does not report them.
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
