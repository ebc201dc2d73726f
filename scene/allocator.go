// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package scene

import (
	"sync/atomic"

	"github.com/golang/geo/r3"
)

// Allocator hands out vertex buffers and counts the ones not yet released.
// It is safe for concurrent use.
type Allocator struct {
	live  atomic.Int64
	total atomic.Int64
}

// Live returns the number of buffers allocated and not yet freed.
func (a *Allocator) Live() int64 {
	return a.live.Load()
}

// Total returns the number of buffers ever allocated.
func (a *Allocator) Total() int64 {
	return a.total.Load()
}

func (a *Allocator) vertices(vs ...r3.Vector) []r3.Vector {
	a.live.Add(1)
	a.total.Add(1)
	buf := make([]r3.Vector, len(vs))
	copy(buf, vs)
	return buf
}

func (a *Allocator) free(buf []r3.Vector) {
	if buf == nil {
		return
	}
	a.live.Add(-1)
}
