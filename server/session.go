// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package server

import (
	"errors"
	"sync"
	"time"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/board"
	"github.com/2dChan/liftview/canvas"
	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/render"
	"github.com/2dChan/liftview/scene"
	"github.com/2dChan/liftview/viewport"
)

// Session is one visualiser: a 2D board feeding a 3D viewport.
type Session struct {
	ID      string
	Created time.Time

	board      *board.Board
	view       *viewport.Controller
	raster     *render.Raster
	vector     *render.SVG
	canvasOpts []canvas.Option

	mu     sync.Mutex
	subs   map[int]chan board.Snapshot
	nextID int
	closed bool

	// Owned by the board observer.
	lastVersion uint64
	lastEdges   []geom.Edge
}

func newSession(id string, tri board.Triangulator, opts Options) (s *Session, err error) {
	s = &Session{
		ID:         id,
		Created:    time.Now(),
		subs:       make(map[int]chan board.Snapshot),
		canvasOpts: []canvas.Option{canvas.WithSize(opts.Canvas.Width, opts.Canvas.Height)},
	}

	if s.raster, err = render.NewRaster(opts.View.Width, opts.View.Height); err != nil {
		return nil, err
	}
	if s.vector, err = render.NewSVG(opts.View.Width, opts.View.Height); err != nil {
		return nil, errors.Join(err, s.raster.Close())
	}
	tee, err := render.NewTee(s.raster, s.vector)
	if err != nil {
		return nil, errors.Join(err, s.raster.Close(), s.vector.Close())
	}

	s.view, err = viewport.Open(tee,
		viewport.WithFrameInterval(opts.View.FrameInterval),
		viewport.WithLiftOptions(liftview.WithRange(opts.View.RangeMin, opts.View.RangeMax)),
		viewport.WithComposerOptions(scene.WithFloorMargin(opts.View.FloorMargin)),
		viewport.WithAllocator(opts.Allocator),
	)
	if err != nil {
		return nil, errors.Join(err, tee.Close())
	}

	s.board, err = board.New(tri, board.WithEraseRadius(opts.Canvas.EraseRadius))
	if err != nil {
		return nil, errors.Join(err, s.view.Close())
	}
	s.board.Subscribe(s.onSnapshot)
	return s, nil
}

// onSnapshot runs under the board lock.
func (s *Session) onSnapshot(snap board.Snapshot) {
	if snap.Version != s.lastVersion || !sameEdges(snap.Edges, s.lastEdges) {
		s.lastVersion, s.lastEdges = snap.Version, snap.Edges
		if err := s.view.SetInput(snap.Points, snap.Edges); err != nil && !errors.Is(err, viewport.ErrClosed) {
			liftview.Logger().Warn("server: viewport rejected input", "session", s.ID,
				"version", snap.Version, "err", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// subscribe returns a channel of board snapshots. Slow receivers miss snapshots.
func (s *Session) subscribe() (<-chan board.Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan board.Snapshot, 8)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Session) Board() *board.Board {
	return s.board
}

func (s *Session) View() *viewport.Controller {
	return s.view
}

// Close stops the board first so no input reaches the viewport while it shuts down.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.mu.Unlock()

	return errors.Join(s.board.Close(), s.view.Close())
}

func sameEdges(a, b []geom.Edge) bool {
	if len(a) != len(b) || (a == nil) != (b == nil) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
