// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package board holds the editable 2D point set of one view and keeps its triangulation in
// sync with a remote triangulator.
//
// Every point mutation bumps the board version and asks for a new triangulation tagged with
// that version. Answers carrying an older version, or overtaken by a later request for the
// same version, are dropped. Edges are only ever reported together with the points they were
// computed for.
package board

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/geom"
)

const (
	DefaultEraseRadius = 10
)

var (
	ErrClosed         = errors.New("board: closed")
	ErrNonFinite      = errors.New("board: non-finite point")
	ErrNoTriangulator = errors.New("board: nil triangulator")
	ErrStaleResponse  = errors.New("board: response superseded")
	ErrUnknownMode    = errors.New("board: unknown mode")
)

// Triangulator computes the Delaunay edges of a point set.
type Triangulator interface {
	Triangulate(ctx context.Context, points []geom.Point) ([]geom.Edge, error)
}

type Mode int

const (
	ModeAdd Mode = iota
	ModeErase
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeErase:
		return "erase"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts the names returned by Mode.String, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return ModeAdd, nil
	case "erase":
		return ModeErase, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) valid() bool {
	return m == ModeAdd || m == ModeErase
}

// Snapshot is a consistent view of the board. Edges are nil unless they were computed for
// exactly Points.
type Snapshot struct {
	Version uint64
	Mode    Mode
	Points  []geom.Point
	Edges   []geom.Edge
	// Index of the highlighted point, or -1.
	Hover   int
	Pending bool
	// Last collaborator failure for the current version, if any.
	Err error
}

type Options struct {
	EraseRadius float64
}

type Option func(*Options) error

// WithEraseRadius sets the distance, in canvas pixels, under which a point is erased or
// highlighted.
func WithEraseRadius(r float64) Option {
	return func(o *Options) error {
		if r <= 0 || math.IsInf(r, 0) || math.IsNaN(r) {
			return fmt.Errorf("WithEraseRadius(%v): radius must be positive and finite", r)
		}
		o.EraseRadius = r
		return nil
	}
}

// Board is safe for concurrent use.
type Board struct {
	tri    Triangulator
	radius float64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	closed       bool
	mode         Mode
	points       []geom.Point
	hover        int
	version      uint64
	edges        []geom.Edge
	edgesVersion uint64
	lastErr      error
	// seq numbers requests; applied is the seq of the newest answer taken.
	seq      uint64
	applied  uint64
	inflight map[uint64]uint64

	observers map[int]func(Snapshot)
	nextObs   int
}

func New(tri Triangulator, setters ...Option) (*Board, error) {
	if tri == nil {
		return nil, ErrNoTriangulator
	}
	opts := Options{
		EraseRadius: DefaultEraseRadius,
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Board{
		tri:       tri,
		radius:    opts.EraseRadius,
		ctx:       ctx,
		cancel:    cancel,
		hover:     -1,
		inflight:  make(map[uint64]uint64),
		observers: make(map[int]func(Snapshot)),
	}, nil
}

// Click applies the current mode at p. In add mode p is appended. In erase mode the nearest
// point closer than the erase radius is removed; when there is none nothing changes and no
// request is made.
func (b *Board) Click(p geom.Point) error {
	if !p.IsFinite() {
		return ErrNonFinite
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	switch b.mode {
	case ModeAdd:
		b.setPoints(geom.Append(b.points, p))
	case ModeErase:
		i, ok := geom.Nearest(b.points, p, b.radius)
		if !ok {
			return nil
		}
		b.setPoints(geom.Remove(b.points, i))
	}
	return nil
}

// Hover highlights the point nearest to p within the erase radius and returns its index, or -1.
func (b *Board) Hover(p geom.Point) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx := -1
	if i, ok := geom.Nearest(b.points, p, b.radius); ok && p.IsFinite() {
		idx = i
	}
	if idx != b.hover && !b.closed {
		b.hover = idx
		b.notify()
	}
	return idx
}

func (b *Board) SetMode(m Mode) error {
	if !m.valid() {
		return fmt.Errorf("%w: %v", ErrUnknownMode, m)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	if b.mode != m {
		b.mode = m
		b.notify()
	}
	return nil
}

func (b *Board) Mode() Mode {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mode
}

// Clear removes every point.
func (b *Board) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.setPoints(nil)
	return nil
}

// SetPoints replaces the whole point set.
func (b *Board) SetPoints(points []geom.Point) error {
	for _, p := range points {
		if !p.IsFinite() {
			return ErrNonFinite
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.setPoints(slices.Clone(points))
	return nil
}

// Refresh requests the triangulation of the current points again and waits for the answer.
// An empty board has nothing to triangulate and returns nil at once. It returns
// ErrStaleResponse when the points changed, or a newer request was answered, before this one
// came back.
func (b *Board) Refresh(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	if len(b.points) == 0 {
		b.mu.Unlock()
		return nil
	}
	seq, version, points := b.begin()
	b.mu.Unlock()

	defer b.wg.Done()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(b.ctx, cancel)
	defer stop()

	return b.request(ctx, seq, version, points)
}

// Snapshot returns the current state. The returned slices must not be modified.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snapshot()
}

// Subscribe registers fn to receive every state change, in order. fn runs with the board
// locked and must not call back into the board. The returned function unregisters fn.
func (b *Board) Subscribe(fn func(Snapshot)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.observers, id)
	}
}

// Wait blocks until every request issued so far has finished.
func (b *Board) Wait() {
	b.wg.Wait()
}

// Close cancels in-flight requests and waits for them. Close is idempotent.
func (b *Board) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.cancel()
	b.mu.Unlock()

	b.wg.Wait()

	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.observers)
	return nil
}

// setPoints must be called with b.mu held.
func (b *Board) setPoints(points []geom.Point) {
	b.points = points
	b.version++
	b.hover = -1
	b.lastErr = nil

	if len(points) == 0 {
		b.edges, b.edgesVersion = nil, b.version
		b.notify()
		return
	}

	seq, version, pts := b.begin()
	b.notify()
	go func() {
		defer b.wg.Done()
		if err := b.request(b.ctx, seq, version, pts); err != nil && !errors.Is(err, ErrStaleResponse) {
			liftview.Logger().Debug("board: async triangulation failed", "version", version, "err", err)
		}
	}()
}

// begin registers a request for the current points. It must be called with b.mu held; the
// caller owns one b.wg count.
func (b *Board) begin() (seq, version uint64, points []geom.Point) {
	b.seq++
	b.inflight[b.seq] = b.version
	b.wg.Add(1)
	return b.seq, b.version, b.points
}

func (b *Board) request(ctx context.Context, seq, version uint64, points []geom.Point) error {
	edges, err := b.tri.Triangulate(ctx, points)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inflight, seq)

	if b.closed {
		return ErrStaleResponse
	}
	if version != b.version || seq < b.applied {
		liftview.Logger().Debug("board: discarding stale triangulation",
			"version", version, "current", b.version, "seq", seq)
		b.notify()
		return ErrStaleResponse
	}
	b.applied = seq
	if err != nil {
		liftview.Logger().Warn("board: triangulation failed", "version", version, "err", err)
		b.lastErr = err
		b.notify()
		return err
	}
	b.edges, b.edgesVersion = edges, version
	b.lastErr = nil
	b.notify()
	return nil
}

func (b *Board) snapshot() Snapshot {
	s := Snapshot{
		Version: b.version,
		Mode:    b.mode,
		Points:  b.points,
		Hover:   b.hover,
		Err:     b.lastErr,
	}
	if b.edgesVersion == b.version {
		s.Edges = b.edges
	}
	for _, v := range b.inflight {
		if v == b.version {
			s.Pending = true
			break
		}
	}
	return s
}

func (b *Board) notify() {
	if len(b.observers) == 0 {
		return
	}
	s := b.snapshot()
	ids := make([]int, 0, len(b.observers))
	for id := range b.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		b.observers[id](s)
	}
}
