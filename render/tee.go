// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package render

import (
	"errors"
	"fmt"

	"github.com/2dChan/liftview/viewport"
)

// Tee draws every frame onto several surfaces. The first one decides the size.
type Tee struct {
	surfaces []viewport.Surface
}

func NewTee(first viewport.Surface, rest ...viewport.Surface) (*Tee, error) {
	if first == nil {
		return nil, errors.New("render: nil surface")
	}
	w, h := first.Size()
	for i, s := range rest {
		if s == nil {
			return nil, errors.New("render: nil surface")
		}
		if sw, sh := s.Size(); sw != w || sh != h {
			return nil, fmt.Errorf("%w: surface %d is %dx%d, want %dx%d", ErrInvalidSize, i+1, sw, sh, w, h)
		}
	}
	return &Tee{surfaces: append([]viewport.Surface{first}, rest...)}, nil
}

func (t *Tee) Size() (int, int) {
	return t.surfaces[0].Size()
}

// Draw draws f on every surface, even if some fail.
func (t *Tee) Draw(f *viewport.Frame) error {
	var errs []error
	for _, s := range t.surfaces {
		if err := s.Draw(f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Tee) Close() error {
	var errs []error
	for _, s := range t.surfaces {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
