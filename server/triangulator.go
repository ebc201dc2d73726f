// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/delaunay"
	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/triangulator"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

const maxRequestBytes = 8 << 20

var errEmptyBody = errors.New("empty request body")

// NewTriangulatorRouter serves Delaunay edges at path, answering the triangulator client's
// wire format. Bodies may be {"points":[...]} or a bare array of points.
func NewTriangulatorRouter(path string, opts ...delaunay.TriangulationOption) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST(path, func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxRequestBytes))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		points, err := decodePoints(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		dt, err := delaunay.NewTriangulation(points, opts...)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, delaunay.ErrNonFinite) {
				status = http.StatusBadRequest
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		out, err := json.Marshal(dt.EdgeSegments())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		liftview.Logger().Debug("triangulated", "points", len(points), "edges", len(dt.Edges))
		c.Data(http.StatusOK, "application/json", out)
	})
	return r
}

func decodePoints(body []byte) ([]geom.Point, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errEmptyBody
	}
	if body[0] == '[' {
		var points []geom.Point
		if err := json.Unmarshal(body, &points); err != nil {
			return nil, fmt.Errorf("decode points: %w", err)
		}
		return points, nil
	}
	var req triangulator.Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return req.Points, nil
}
