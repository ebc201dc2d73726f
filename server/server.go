// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

// Package server exposes liftview sessions over HTTP and WebSocket, and serves the reference
// triangulation endpoint.
package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/board"
	"github.com/2dChan/liftview/config"
	"github.com/2dChan/liftview/scene"
	"github.com/google/uuid"
)

const (
	defaultMaxSessions = 64
)

var (
	ErrNotFound        = errors.New("server: session not found")
	ErrTooManySessions = errors.New("server: too many sessions")
	ErrClosed          = errors.New("server: closed")
)

type Options struct {
	Canvas      config.Canvas
	View        config.View
	MaxSessions int
	// Shared by every session; nil gives each session its own.
	Allocator *scene.Allocator
}

type Option func(*Options) error

// WithConfig takes the canvas and view settings from cfg.
func WithConfig(cfg config.Config) Option {
	return func(o *Options) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		o.Canvas, o.View = cfg.Canvas, cfg.View
		return nil
	}
}

func WithMaxSessions(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("WithMaxSessions(%d): must be positive", n)
		}
		o.MaxSessions = n
		return nil
	}
}

func WithAllocator(a *scene.Allocator) Option {
	return func(o *Options) error {
		o.Allocator = a
		return nil
	}
}

// Server owns the live sessions. It is safe for concurrent use.
type Server struct {
	tri  board.Triangulator
	opts Options

	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool
}

func New(tri board.Triangulator, setters ...Option) (*Server, error) {
	if tri == nil {
		return nil, board.ErrNoTriangulator
	}
	def := config.Default()
	opts := Options{
		Canvas:      def.Canvas,
		View:        def.View,
		MaxSessions: defaultMaxSessions,
		Allocator:   new(scene.Allocator),
	}
	for _, set := range setters {
		if err := set(&opts); err != nil {
			return nil, err
		}
	}
	return &Server{
		tri:      tri,
		opts:     opts,
		sessions: make(map[string]*Session),
	}, nil
}

// Open starts a new session.
func (s *Server) Open() (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(s.sessions) >= s.opts.MaxSessions {
		return nil, ErrTooManySessions
	}

	sess, err := newSession(uuid.NewString(), s.tri, s.opts)
	if err != nil {
		return nil, fmt.Errorf("server: open session: %w", err)
	}
	s.sessions[sess.ID] = sess
	liftview.Logger().Info("session opened", "session", sess.ID, "live", len(s.sessions))
	return sess, nil
}

func (s *Server) Lookup(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// Remove closes and forgets the session id.
func (s *Server) Remove(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	live := len(s.sessions)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	liftview.Logger().Info("session closed", "session", id, "live", live)
	return sess.Close()
}

func (s *Server) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Server) Allocator() *scene.Allocator {
	return s.opts.Allocator
}

// Close closes every session. Close is idempotent.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	sessions := s.sessions
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	var errs []error
	for _, sess := range sessions {
		errs = append(errs, sess.Close())
	}
	return errors.Join(errs...)
}
