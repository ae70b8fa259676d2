// Package markers exposes interactive markers to clients over HTTP, WebSocket, and MQTT.
// Clients read marker snapshots and send back feedback events, which are dispatched into a
// RobotInteraction.
package markers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	goutils "go.viam.com/utils"

	"github.com/armature-robotics/interaction/interaction"
)

// how often marker snapshots are pushed to WebSocket clients
const defaultSnapshotInterval = 500 * time.Millisecond

// Server serves the marker API:
//
//	GET  /api/markers  - snapshot of all active markers
//	POST /api/feedback - submit one feedback event
//	GET  /ws           - WebSocket; clients stream feedback in and receive periodic snapshots
type Server struct {
	logger           golog.Logger
	ri               *interaction.RobotInteraction
	echoServer       *echo.Echo
	upgrader         websocket.Upgrader
	snapshotInterval time.Duration

	mu      sync.Mutex
	clients map[string]*wsClient

	workers *goutils.StoppableWorkers
}

type wsClient struct {
	id   string
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *wsClient) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// NewServer creates a marker server dispatching into the given RobotInteraction and starts its
// snapshot broadcaster. Serve with Start, stop with Close.
func NewServer(ri *interaction.RobotInteraction, logger golog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		logger:           logger,
		ri:               ri,
		echoServer:       e,
		snapshotInterval: defaultSnapshotInterval,
		clients:          map[string]*wsClient{},
	}
	e.GET("/api/markers", s.listMarkers)
	e.POST("/api/feedback", s.postFeedback)
	e.GET("/ws", s.serveWebSocket)

	s.workers = goutils.NewBackgroundStoppableWorkers(s.broadcastLoop)
	return s
}

// Handler returns the underlying HTTP handler, e.g. for mounting in another server or in tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Start listens on the given address and serves until Close is called.
func (s *Server) Start(addr string) error {
	return s.echoServer.Start(addr)
}

// Close stops the snapshot broadcaster, disconnects all WebSocket clients, and shuts the HTTP
// server down.
func (s *Server) Close(ctx context.Context) error {
	s.workers.Stop()

	s.mu.Lock()
	clients := make([]*wsClient, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clients = map[string]*wsClient{}
	s.mu.Unlock()
	for _, client := range clients {
		goutils.UncheckedError(client.conn.Close())
	}

	return s.echoServer.Shutdown(ctx)
}

func (s *Server) snapshot() SnapshotMessage {
	statuses := s.ri.MarkerStatuses()
	msg := SnapshotMessage{Markers: make([]MarkerStatusMessage, 0, len(statuses))}
	for _, status := range statuses {
		msg.Markers = append(msg.Markers, NewMarkerStatusMessage(status))
	}
	return msg
}

func (s *Server) listMarkers(c echo.Context) error {
	return c.JSON(http.StatusOK, s.snapshot())
}

func (s *Server) postFeedback(c echo.Context) error {
	var msg FeedbackMessage
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	feedback, err := msg.Feedback()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := s.ri.DispatchFeedback(feedback); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) serveWebSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	client := &wsClient{id: uuid.NewString(), conn: conn}

	s.mu.Lock()
	s.clients[client.id] = client
	s.mu.Unlock()
	s.logger.Debugw("marker client connected", "client", client.id)
	defer func() {
		s.mu.Lock()
		delete(s.clients, client.id)
		s.mu.Unlock()
		goutils.UncheckedError(conn.Close())
		s.logger.Debugw("marker client disconnected", "client", client.id)
	}()

	// greet with a snapshot so the client can draw immediately
	if err := client.writeJSON(s.snapshot()); err != nil {
		return nil
	}

	for {
		var msg FeedbackMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debugw("marker client read failed", "client", client.id, "error", err)
			}
			return nil
		}
		feedback, err := msg.Feedback()
		if err != nil {
			s.logger.Debugw("bad feedback from marker client", "client", client.id, "error", err)
			continue
		}
		if feedback.Client == "" {
			feedback.Client = client.id
		}
		if err := s.ri.DispatchFeedback(feedback); err != nil {
			s.logger.Debugw("feedback dropped", "client", client.id, "error", err)
		}
	}
}

func (s *Server) broadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(s.snapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcastSnapshot()
		}
	}
}

func (s *Server) broadcastSnapshot() {
	s.mu.Lock()
	clients := make([]*wsClient, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.Unlock()
	if len(clients) == 0 {
		return
	}

	snapshot := s.snapshot()
	for _, client := range clients {
		if err := client.writeJSON(snapshot); err != nil {
			s.logger.Debugw("dropping unresponsive marker client", "client", client.id, "error", err)
			s.mu.Lock()
			delete(s.clients, client.id)
			s.mu.Unlock()
			goutils.UncheckedError(client.conn.Close())
		}
	}
}
