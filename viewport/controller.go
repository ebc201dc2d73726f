// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package viewport owns a render surface, an orbit camera and the frame loop that draws the
// lifted scene of the current (points, edges) pair.
//
// A Controller moves through Unmounted → Idle → Rendering → Unmounted. Every SetInput discards
// the previous scene and composes a fresh one; Close stops the frame loop and releases the scene
// and the surface.
package viewport

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/scene"
)

const (
	defaultFrameInterval = time.Second / 60
)

var (
	ErrNoSurface = errors.New("viewport: render surface unavailable")
	ErrClosed    = errors.New("viewport: controller closed")
)

type State int

const (
	StateUnmounted State = iota
	StateIdle
	StateRendering
)

func (s State) String() string {
	switch s {
	case StateUnmounted:
		return "unmounted"
	case StateIdle:
		return "idle"
	case StateRendering:
		return "rendering"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// FrameInfo is sent to subscribers after every drawn frame.
type FrameInfo struct {
	Number  uint64
	Version uint64
	State   State
	Counts  scene.Counts
}

type Options struct {
	FrameInterval time.Duration
	Camera        CameraOptions
	Lift          []liftview.LiftOption
	Composer      []scene.ComposerOption
	Allocator     *scene.Allocator
}

type Option func(*Options) error

// WithFrameInterval sets the period of the frame loop. Zero disables the loop; frames are then
// only drawn by RenderFrame.
func WithFrameInterval(d time.Duration) Option {
	return func(o *Options) error {
		if d < 0 {
			return fmt.Errorf("WithFrameInterval: negative interval %v", d)
		}
		o.FrameInterval = d
		return nil
	}
}

func WithCameraOptions(opts CameraOptions) Option {
	return func(o *Options) error {
		if err := opts.validate(); err != nil {
			return err
		}
		o.Camera = opts
		return nil
	}
}

func WithLiftOptions(opts ...liftview.LiftOption) Option {
	return func(o *Options) error {
		o.Lift = append(o.Lift, opts...)
		return nil
	}
}

func WithComposerOptions(opts ...scene.ComposerOption) Option {
	return func(o *Options) error {
		o.Composer = append(o.Composer, opts...)
		return nil
	}
}

// WithAllocator shares a vertex allocator, letting callers observe outstanding buffers.
func WithAllocator(a *scene.Allocator) Option {
	return func(o *Options) error {
		o.Allocator = a
		return nil
	}
}

// Controller renders one view. All methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	state    State
	surface  Surface
	camera   *Camera
	composer *scene.Composer
	liftOpts []liftview.LiftOption

	scene   *scene.Scene
	version uint64
	frames  uint64

	subs   map[int]chan FrameInfo
	nextID int

	stop chan struct{}
	done chan struct{}
}

// Open mounts a Controller on surface and starts its frame loop.
func Open(surface Surface, setters ...Option) (*Controller, error) {
	if surface == nil {
		return nil, ErrNoSurface
	}
	opts := Options{
		FrameInterval: defaultFrameInterval,
		Camera:        DefaultCameraOptions(),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}

	camera, err := NewCamera(opts.Camera)
	if err != nil {
		return nil, err
	}
	composer, err := scene.NewComposer(opts.Allocator, opts.Composer...)
	if err != nil {
		return nil, err
	}
	// Fail on bad lift options at mount time rather than on the first input.
	if _, err := liftview.NewLift([]geom.Point{{}}, nil, opts.Lift...); err != nil {
		return nil, err
	}

	c := &Controller{
		state:    StateIdle,
		surface:  surface,
		camera:   camera,
		composer: composer,
		liftOpts: opts.Lift,
		subs:     make(map[int]chan FrameInfo),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if opts.FrameInterval > 0 {
		go c.loop(opts.FrameInterval)
	} else {
		close(c.done)
	}
	liftview.Logger().Debug("viewport opened", "interval", opts.FrameInterval)
	return c, nil
}

func (c *Controller) loop(interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if _, err := c.RenderFrame(); err != nil {
				if errors.Is(err, ErrClosed) {
					return
				}
				liftview.Logger().Warn("viewport: frame skipped", "error", err)
			}
		}
	}
}

// SetInput replaces the rendered data. The previous scene is released and a new one is
// composed from scratch. Input that cannot be lifted, such as an empty point set, leaves the
// controller idle with nothing drawn in 3D.
func (c *Controller) SetInput(points []geom.Point, edges []geom.Edge) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnmounted {
		return ErrClosed
	}

	c.version++
	c.scene.Release()
	c.scene = nil
	c.state = StateIdle

	l, err := liftview.NewLift(points, edges, c.liftOpts...)
	if errors.Is(err, liftview.ErrInsufficientInput) {
		liftview.Logger().Debug("viewport: nothing to lift", "version", c.version)
		return nil
	}
	if err != nil {
		return fmt.Errorf("viewport: lift: %w", err)
	}

	s, err := c.composer.Compose(l)
	if err != nil {
		return fmt.Errorf("viewport: compose: %w", err)
	}
	c.scene = s
	c.state = StateRendering
	return nil
}

// RenderFrame advances the camera by one damped step and draws one frame.
// A failing surface skips the frame but keeps the controller mounted.
func (c *Controller) RenderFrame() (*Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateUnmounted {
		return nil, ErrClosed
	}

	c.camera.Update()
	c.frames++
	w, h := c.surface.Size()
	f := &Frame{
		Number:     c.frames,
		Version:    c.version,
		Width:      w,
		Height:     h,
		Background: c.composer.Options().Style.Background,
	}
	if c.state == StateRendering {
		f.Markers, f.Segments = project(c.scene, c.camera, w, h)
	}

	if err := c.surface.Draw(f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSurface, err)
	}

	info := FrameInfo{Number: f.Number, Version: f.Version, State: c.state}
	if c.scene != nil {
		info.Counts = c.scene.Counts()
	}
	for _, ch := range c.subs {
		select {
		case ch <- info:
		default:
		}
	}
	return f, nil
}

// Subscribe returns a channel receiving FrameInfo after each drawn frame. Slow receivers miss
// frames rather than stall the loop. The channel is closed by cancel or by Close.
func (c *Controller) Subscribe() (<-chan FrameInfo, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan FrameInfo, 1)
	if c.state == StateUnmounted {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Version returns the number of SetInput calls so far.
func (c *Controller) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Counts returns the primitive counts of the current scene.
func (c *Controller) Counts() scene.Counts {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scene == nil {
		return scene.Counts{}
	}
	return c.scene.Counts()
}

func (c *Controller) Rotate(dAzimuth, dPolar float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera.Rotate(dAzimuth, dPolar)
}

func (c *Controller) Zoom(scale float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera.Zoom(scale)
}

func (c *Controller) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera.Pan(dx, dy)
}

func (c *Controller) ResetCamera() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.camera.Reset()
}

// Close stops the frame loop, waits for it to exit, and releases the scene and the surface.
// Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.state == StateUnmounted {
		c.mu.Unlock()
		return nil
	}
	c.state = StateUnmounted
	close(c.stop)
	c.mu.Unlock()

	<-c.done

	c.mu.Lock()
	defer c.mu.Unlock()
	c.scene.Release()
	c.scene = nil
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
	liftview.Logger().Debug("viewport closed", "frames", c.frames)
	return c.surface.Close()
}
