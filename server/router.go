// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package server

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/board"
	"github.com/2dChan/liftview/canvas"
	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/viewport"
	"github.com/gin-gonic/gin"
)

const sessionKey = "session"

// Router returns the HTTP API of s.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.health)

	api := r.Group("/api/sessions")
	{
		api.POST("", s.createSession)

		one := api.Group("/:id", s.loadSession)
		one.DELETE("", s.deleteSession)
		one.GET("/state", s.state)
		one.POST("/click", s.click)
		one.POST("/hover", s.hover)
		one.PUT("/mode", s.setMode)
		one.POST("/clear", s.clear)
		one.POST("/triangulate", s.triangulate)
		one.POST("/camera", s.camera)
		one.GET("/canvas.svg", s.canvasSVG)
		one.GET("/lines", s.lines)
		one.GET("/scene.png", s.scenePNG)
		one.GET("/scene.svg", s.sceneSVG)
		one.GET("/edges.geojson", s.edgesGeoJSON)
		one.GET("/ws", s.stream)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		liftview.Logger().Debug("http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) loadSession(c *gin.Context) {
	sess, ok := s.Lookup(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": ErrNotFound.Error()})
		return
	}
	c.Set(sessionKey, sess)
	c.Next()
}

func session(c *gin.Context) *Session {
	return c.MustGet(sessionKey).(*Session)
}

type pointRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

func (p pointRequest) point() geom.Point {
	return geom.Point{X: *p.X, Y: *p.Y}
}

type modeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

type cameraRequest struct {
	Rotate *[2]float64 `json:"rotate,omitempty"`
	Zoom   float64     `json:"zoom,omitempty"`
	Pan    *[2]float64 `json:"pan,omitempty"`
	Reset  bool        `json:"reset,omitempty"`
}

func (r cameraRequest) validate() error {
	finite := func(vs ...float64) bool {
		for _, v := range vs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
		return true
	}
	if !finite(r.Zoom) || r.Zoom < 0 {
		return errors.New("zoom must be a positive finite factor")
	}
	if r.Rotate != nil && !finite(r.Rotate[0], r.Rotate[1]) {
		return errors.New("rotate must be finite")
	}
	if r.Pan != nil && !finite(r.Pan[0], r.Pan[1]) {
		return errors.New("pan must be finite")
	}
	return nil
}

func (r cameraRequest) apply(v *viewport.Controller) {
	if r.Reset {
		v.ResetCamera()
	}
	if r.Rotate != nil {
		v.Rotate(r.Rotate[0], r.Rotate[1])
	}
	if r.Zoom > 0 {
		v.Zoom(r.Zoom)
	}
	if r.Pan != nil {
		v.Pan(r.Pan[0], r.Pan[1])
	}
}

type viewResponse struct {
	State       string `json:"state"`
	Version     uint64 `json:"version"`
	Markers     int    `json:"markers"`
	HullEdges   int    `json:"hull_edges"`
	ShadowEdges int    `json:"shadow_edges"`
	DropLines   int    `json:"drop_lines"`
}

type stateResponse struct {
	ID        string       `json:"id"`
	Version   uint64       `json:"version"`
	Mode      string       `json:"mode"`
	Points    []geom.Point `json:"points"`
	Edges     []geom.Edge  `json:"edges"`
	Hover     int          `json:"hover"`
	Pending   bool         `json:"pending"`
	LastError string       `json:"last_error,omitempty"`
	View      viewResponse `json:"view"`
}

func newStateResponse(sess *Session, snap board.Snapshot) stateResponse {
	resp := stateResponse{
		ID:      sess.ID,
		Version: snap.Version,
		Mode:    snap.Mode.String(),
		Points:  snap.Points,
		Edges:   snap.Edges,
		Hover:   snap.Hover,
		Pending: snap.Pending,
	}
	if resp.Points == nil {
		resp.Points = []geom.Point{}
	}
	if resp.Edges == nil {
		resp.Edges = []geom.Edge{}
	}
	if snap.Err != nil {
		resp.LastError = snap.Err.Error()
	}
	counts := sess.view.Counts()
	resp.View = viewResponse{
		State:       sess.view.State().String(),
		Version:     sess.view.Version(),
		Markers:     counts.Markers,
		HullEdges:   counts.HullEdges,
		ShadowEdges: counts.ShadowEdges,
		DropLines:   counts.DropLines,
	}
	return resp
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"sessions":      s.Len(),
		"live_buffers":  s.opts.Allocator.Live(),
		"total_buffers": s.opts.Allocator.Total(),
	})
}

func (s *Server) createSession(c *gin.Context) {
	sess, err := s.Open()
	switch {
	case errors.Is(err, ErrTooManySessions):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID})
}

func (s *Server) deleteSession(c *gin.Context) {
	if err := s.Remove(c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) state(c *gin.Context) {
	sess := session(c)
	c.JSON(http.StatusOK, newStateResponse(sess, sess.board.Snapshot()))
}

func (s *Server) click(c *gin.Context) {
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess := session(c)
	if err := sess.board.Click(req.point()); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(sess, sess.board.Snapshot()))
}

func (s *Server) hover(c *gin.Context) {
	var req pointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hover": session(c).board.Hover(req.point())})
}

func (s *Server) setMode(c *gin.Context) {
	var req modeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m, err := board.ParseMode(req.Mode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := session(c).board.SetMode(m); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"mode": m.String()})
}

func (s *Server) clear(c *gin.Context) {
	sess := session(c)
	if err := sess.board.Clear(); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(sess, sess.board.Snapshot()))
}

// triangulate waits for a fresh triangulation of the current points.
func (s *Server) triangulate(c *gin.Context) {
	sess := session(c)
	if err := sess.board.Refresh(c.Request.Context()); err != nil {
		respondBoardError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStateResponse(sess, sess.board.Snapshot()))
}

func (s *Server) camera(c *gin.Context) {
	var req cameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	v := session(c).view
	req.apply(v)
	c.JSON(http.StatusOK, gin.H{"state": v.State().String()})
}

func (s *Server) canvasSVG(c *gin.Context) {
	sess := session(c)
	snap := sess.board.Snapshot()
	var buf bytes.Buffer
	err := canvas.Draw(&buf, canvas.Layer{Points: snap.Points, Edges: snap.Edges, Hover: snap.Hover},
		sess.canvasOpts...)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) lines(c *gin.Context) {
	c.String(http.StatusOK, canvas.Lines(session(c).board.Snapshot().Edges))
}

func (s *Server) scenePNG(c *gin.Context) {
	sess := session(c)
	if _, err := sess.view.RenderFrame(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := sess.raster.EncodePNG(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func (s *Server) sceneSVG(c *gin.Context) {
	sess := session(c)
	if _, err := sess.view.RenderFrame(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := sess.vector.Encode(&buf); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}

func (s *Server) edgesGeoJSON(c *gin.Context) {
	snap := session(c).board.Snapshot()
	b, err := featureCollection(snap.Points, snap.Edges).MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", b)
}

func respondBoardError(c *gin.Context, err error) {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, board.ErrNonFinite), errors.Is(err, board.ErrUnknownMode):
		status = http.StatusBadRequest
	case errors.Is(err, board.ErrClosed):
		status = http.StatusNotFound
	case errors.Is(err, board.ErrStaleResponse):
		status = http.StatusConflict
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
