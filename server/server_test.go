// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package server

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/2dChan/liftview/config"
	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/triangulator"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/paulmach/orb/geojson"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestNew(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Errorf("New(nil) error = nil, want non-nil")
	}
	if _, err := New(newTestTriangulator(t), WithMaxSessions(0)); err == nil {
		t.Errorf("New(..., WithMaxSessions(0)) error = nil, want non-nil")
	}
	bad := config.Default()
	bad.View.FloorMargin = -1
	if _, err := New(newTestTriangulator(t), WithConfig(bad)); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("New(..., WithConfig(bad)) error = %v, want %v", err, config.ErrInvalid)
	}
}

func TestServer_SessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	id := mustCreateSession(t, h)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("session id %q is not a UUID: %v", id, err)
	}
	if got := s.Len(); got != 1 {
		t.Errorf("s.Len() = %v, want 1", got)
	}

	if w := do(t, h, http.MethodDelete, "/api/sessions/"+id, ""); w.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %v, want %v", w.Code, http.StatusNoContent)
	}
	if w := do(t, h, http.MethodGet, "/api/sessions/"+id+"/state", ""); w.Code != http.StatusNotFound {
		t.Errorf("GET state after delete status = %v, want %v", w.Code, http.StatusNotFound)
	}
	if got := s.Allocator().Live(); got != 0 {
		t.Errorf("live buffers after delete = %v, want 0", got)
	}
}

func TestServer_MaxSessions(t *testing.T) {
	s := newTestServer(t, WithMaxSessions(1))
	h := s.Router()
	mustCreateSession(t, h)
	if w := do(t, h, http.MethodPost, "/api/sessions", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("second POST status = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
}

func TestServer_ClickTriangulates(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	id := mustCreateSession(t, h)
	base := "/api/sessions/" + id

	for _, p := range []string{`{"x":100,"y":100}`, `{"x":300,"y":100}`, `{"x":200,"y":300}`} {
		if w := do(t, h, http.MethodPost, base+"/click", p); w.Code != http.StatusOK {
			t.Fatalf("POST click %s status = %v, want %v", p, w.Code, http.StatusOK)
		}
	}
	sess, _ := s.Lookup(id)
	sess.Board().Wait()

	st := getState(t, h, id)
	if st.Version != 3 || len(st.Points) != 3 {
		t.Errorf("state version %v with %d points, want 3 and 3", st.Version, len(st.Points))
	}
	if len(st.Edges) != 3 {
		t.Errorf("len(st.Edges) = %v, want 3", len(st.Edges))
	}
	want := viewResponse{State: "rendering", Version: st.View.Version, Markers: 3, HullEdges: 3, ShadowEdges: 3, DropLines: 3}
	if diff := cmp.Diff(want, st.View); diff != "" {
		t.Errorf("st.View mismatch (-want +got):\n%s", diff)
	}

	w := do(t, h, http.MethodGet, base+"/lines", "")
	if lines := strings.Count(w.Body.String(), "\n"); lines != 3 {
		t.Errorf("GET lines returned %d lines, want 3", lines)
	}
}

func TestServer_EraseAndMode(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	id := mustCreateSession(t, h)
	base := "/api/sessions/" + id

	do(t, h, http.MethodPost, base+"/click", `{"x":5,"y":5}`)
	do(t, h, http.MethodPost, base+"/click", `{"x":100,"y":100}`)

	if w := do(t, h, http.MethodPut, base+"/mode", `{"mode":"drag"}`); w.Code != http.StatusBadRequest {
		t.Errorf("PUT mode drag status = %v, want %v", w.Code, http.StatusBadRequest)
	}
	if w := do(t, h, http.MethodPut, base+"/mode", `{"mode":"erase"}`); w.Code != http.StatusOK {
		t.Fatalf("PUT mode erase status = %v, want %v", w.Code, http.StatusOK)
	}
	do(t, h, http.MethodPost, base+"/click", `{"x":6,"y":6}`)

	st := getState(t, h, id)
	if diff := cmp.Diff([]geom.Point{{X: 100, Y: 100}}, st.Points); diff != "" {
		t.Errorf("st.Points mismatch (-want +got):\n%s", diff)
	}
	if st.Mode != "erase" {
		t.Errorf("st.Mode = %q, want %q", st.Mode, "erase")
	}

	w := do(t, h, http.MethodPost, base+"/hover", `{"x":101,"y":99}`)
	if !strings.Contains(w.Body.String(), `"hover":0`) {
		t.Errorf("POST hover body = %s, want hover 0", w.Body.String())
	}

	if w := do(t, h, http.MethodPost, base+"/clear", ""); w.Code != http.StatusOK {
		t.Errorf("POST clear status = %v, want %v", w.Code, http.StatusOK)
	}
	if st := getState(t, h, id); len(st.Points) != 0 || len(st.Edges) != 0 {
		t.Errorf("state after clear has %d points and %d edges, want none", len(st.Points), len(st.Edges))
	}
}

func TestServer_BadRequests(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	base := "/api/sessions/" + mustCreateSession(t, h)

	tests := []struct {
		name, method, path, body string
		want                     int
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope/state", "", http.StatusNotFound},
		{"click without y", http.MethodPost, base + "/click", `{"x":1}`, http.StatusBadRequest},
		{"click not json", http.MethodPost, base + "/click", `x=1`, http.StatusBadRequest},
		{"negative zoom", http.MethodPost, base + "/camera", `{"zoom":-2}`, http.StatusBadRequest},
		{"mode missing", http.MethodPut, base + "/mode", `{}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			if w.Code != tt.want {
				t.Errorf("%s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.want)
			}
			if !strings.Contains(w.Body.String(), `"error"`) {
				t.Errorf("%s %s body = %s, want an error field", tt.method, tt.path, w.Body.String())
			}
		})
	}
}

func TestServer_Triangulate(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	id := mustCreateSession(t, h)
	base := "/api/sessions/" + id

	do(t, h, http.MethodPost, base+"/click", `{"x":10,"y":10}`)
	do(t, h, http.MethodPost, base+"/click", `{"x":50,"y":10}`)
	w := do(t, h, http.MethodPost, base+"/triangulate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("POST triangulate status = %v, want %v (%s)", w.Code, http.StatusOK, w.Body.String())
	}
	var st stateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json.Unmarshal(...) error = %v, want nil", err)
	}
	want := []geom.Edge{{X1: 10, Y1: 10, X2: 50, Y2: 10}}
	if diff := cmp.Diff(want, st.Edges); diff != "" {
		t.Errorf("st.Edges mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_Images(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	id := mustCreateSession(t, h)
	base := "/api/sessions/" + id
	for _, p := range []string{`{"x":100,"y":100}`, `{"x":300,"y":100}`, `{"x":200,"y":300}`} {
		do(t, h, http.MethodPost, base+"/click", p)
	}
	sess, _ := s.Lookup(id)
	sess.Board().Wait()

	if w := do(t, h, http.MethodPost, base+"/camera", `{"rotate":[0.1,-0.1],"zoom":1.5,"pan":[3,4]}`); w.Code != http.StatusOK {
		t.Errorf("POST camera status = %v, want %v", w.Code, http.StatusOK)
	}

	tests := []struct {
		path        string
		contentType string
		prefix      string
	}{
		{"/canvas.svg", "image/svg+xml", "<?xml"},
		{"/scene.svg", "image/svg+xml", "<?xml"},
		{"/scene.png", "image/png", "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(t, h, http.MethodGet, base+tt.path, "")
			if w.Code != http.StatusOK {
				t.Fatalf("GET %s status = %v, want %v (%s)", tt.path, w.Code, http.StatusOK, w.Body.String())
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("GET %s Content-Type = %q, want %q", tt.path, got, tt.contentType)
			}
			if !bytes.HasPrefix(w.Body.Bytes(), []byte(tt.prefix)) {
				t.Errorf("GET %s body does not start with %q", tt.path, tt.prefix)
			}
		})
	}
}

func TestServer_GeoJSON(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()
	id := mustCreateSession(t, h)
	base := "/api/sessions/" + id
	for _, p := range []string{`{"x":0,"y":0}`, `{"x":40,"y":0}`, `{"x":0,"y":30}`} {
		do(t, h, http.MethodPost, base+"/click", p)
	}
	sess, _ := s.Lookup(id)
	sess.Board().Wait()

	w := do(t, h, http.MethodGet, base+"/edges.geojson", "")
	fc, err := geojson.UnmarshalFeatureCollection(w.Body.Bytes())
	if err != nil {
		t.Fatalf("geojson.UnmarshalFeatureCollection(...) error = %v, want nil", err)
	}
	kinds := map[string]int{}
	for _, f := range fc.Features {
		kinds[f.Properties.MustString("kind")]++
	}
	if diff := cmp.Diff(map[string]int{"point": 3, "edge": 3}, kinds); diff != "" {
		t.Errorf("feature kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestServer_Stream(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.Router())
	defer srv.Close()
	id := mustCreateSession(t, s.Router())

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("websocket.Dial(%q) error = %v, want nil", url, err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first streamMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("conn.ReadJSON(...) error = %v, want nil", err)
	}
	if first.Type != "state" || first.State == nil || first.State.Version != 0 {
		t.Fatalf("first message = %+v, want the initial state", first)
	}

	cmds := []streamCommand{
		{Type: "click", Point: &geom.Point{X: 10, Y: 20}},
		{Type: "jump"},
	}
	for _, cmd := range cmds {
		if err := conn.WriteJSON(cmd); err != nil {
			t.Fatalf("conn.WriteJSON(%+v) error = %v, want nil", cmd, err)
		}
	}

	var sawClick, sawError bool
	for !sawClick || !sawError {
		var m streamMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatalf("conn.ReadJSON(...) error = %v, want nil", err)
		}
		switch m.Type {
		case "state":
			if m.State.Version == 1 && len(m.State.Points) == 1 {
				sawClick = true
			}
		case "error":
			sawError = true
		}
	}

	// Deleting the session ends the stream.
	do(t, s.Router(), http.MethodDelete, "/api/sessions/"+id, "")
	for {
		var m streamMessage
		if err := conn.ReadJSON(&m); err != nil {
			break
		}
	}
}

// Helpers

func newTestTriangulator(t *testing.T) *triangulator.Client {
	t.Helper()
	srv := httptest.NewServer(NewTriangulatorRouter(triangulator.DefaultPath))
	t.Cleanup(srv.Close)
	c, err := triangulator.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("triangulator.NewClient(%q) error = %v, want nil", srv.URL, err)
	}
	return c
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.View.FrameInterval = 0
	cfg.View.Width, cfg.View.Height = 120, 90
	s, err := New(newTestTriangulator(t), append([]Option{WithConfig(cfg)}, opts...)...)
	if err != nil {
		t.Fatalf("New(...) error = %v, want nil", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func mustCreateSession(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/sessions status = %v, want %v (%s)", w.Code, http.StatusCreated, w.Body.String())
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json.Unmarshal(%s) error = %v, want nil", w.Body.String(), err)
	}
	return resp.ID
}

func getState(t *testing.T, h http.Handler, id string) stateResponse {
	t.Helper()
	w := do(t, h, http.MethodGet, "/api/sessions/"+id+"/state", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET state status = %v, want %v", w.Code, http.StatusOK)
	}
	var st stateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("json.Unmarshal(%s) error = %v, want nil", w.Body.String(), err)
	}
	return st
}
