// Copyright (c) 2026 Andrey Kriulin
// Licensed under the MIT License.
// See the LICENSE file in the project root for full license text.

package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/2dChan/liftview"
	"github.com/2dChan/liftview/board"
	"github.com/2dChan/liftview/geom"
	"github.com/2dChan/liftview/viewport"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	pingPeriod = 30 * time.Second
	writeWait  = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type frameResponse struct {
	Number  uint64       `json:"number"`
	Version uint64       `json:"version"`
	View    viewResponse `json:"view"`
}

// streamMessage is sent to the client. Exactly one of State, Frame and Error is set.
type streamMessage struct {
	Type  string         `json:"type"`
	State *stateResponse `json:"state,omitempty"`
	Frame *frameResponse `json:"frame,omitempty"`
	Error string         `json:"error,omitempty"`
}

// streamCommand is received from the client.
type streamCommand struct {
	Type   string         `json:"type"`
	Point  *geom.Point    `json:"point,omitempty"`
	Mode   string         `json:"mode,omitempty"`
	Camera *cameraRequest `json:"camera,omitempty"`
}

// stream upgrades to a WebSocket that pushes board snapshots and frame notifications and
// accepts click, hover, mode, clear and camera commands.
func (s *Server) stream(c *gin.Context) {
	sess := session(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		liftview.Logger().Warn("server: websocket upgrade failed", "session", sess.ID, "err", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	states, cancelStates := sess.subscribe()
	frames, cancelFrames := sess.view.Subscribe()
	replies := make(chan streamMessage, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		// Unblocks the read loop below.
		defer conn.Close()
		s.writeStream(ctx, conn, sess, states, frames, replies)
	}()

	defer func() {
		cancel()
		cancelStates()
		cancelFrames()
		wg.Wait()
		conn.Close()
		liftview.Logger().Debug("websocket closed", "session", sess.ID)
	}()

	for {
		var cmd streamCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				liftview.Logger().Warn("server: websocket read", "session", sess.ID, "err", err)
			}
			return
		}
		if err := applyCommand(sess, cmd); err != nil {
			select {
			case replies <- streamMessage{Type: "error", Error: err.Error()}:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *Server) writeStream(ctx context.Context, conn *websocket.Conn, sess *Session,
	states <-chan board.Snapshot, frames <-chan viewport.FrameInfo, replies <-chan streamMessage) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	write := func(m streamMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			liftview.Logger().Debug("server: websocket write", "session", sess.ID, "err", err)
			return false
		}
		return true
	}

	initial := newStateResponse(sess, sess.board.Snapshot())
	if !write(streamMessage{Type: "state", State: &initial}) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-states:
			if !ok {
				return
			}
			st := newStateResponse(sess, snap)
			if !write(streamMessage{Type: "state", State: &st}) {
				return
			}
		case info, ok := <-frames:
			if !ok {
				return
			}
			fr := &frameResponse{
				Number:  info.Number,
				Version: info.Version,
				View: viewResponse{
					State:       info.State.String(),
					Version:     info.Version,
					Markers:     info.Counts.Markers,
					HullEdges:   info.Counts.HullEdges,
					ShadowEdges: info.Counts.ShadowEdges,
					DropLines:   info.Counts.DropLines,
				},
			}
			if !write(streamMessage{Type: "frame", Frame: fr}) {
				return
			}
		case m := <-replies:
			if !write(m) {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				liftview.Logger().Debug("server: websocket ping", "session", sess.ID, "err", err)
				return
			}
		}
	}
}

func applyCommand(sess *Session, cmd streamCommand) error {
	switch cmd.Type {
	case "click":
		if cmd.Point == nil {
			return errors.New("click: missing point")
		}
		return sess.board.Click(*cmd.Point)
	case "hover":
		if cmd.Point == nil {
			return errors.New("hover: missing point")
		}
		sess.board.Hover(*cmd.Point)
		return nil
	case "mode":
		m, err := board.ParseMode(cmd.Mode)
		if err != nil {
			return err
		}
		return sess.board.SetMode(m)
	case "clear":
		return sess.board.Clear()
	case "camera":
		if cmd.Camera == nil {
			return errors.New("camera: missing camera")
		}
		if err := cmd.Camera.validate(); err != nil {
			return err
		}
		cmd.Camera.apply(sess.view)
		return nil
	}
	return errors.New("unknown command " + cmd.Type)
}
