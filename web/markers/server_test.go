package markers

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/gorilla/websocket"
	"go.viam.com/test"

	"github.com/armature-robotics/interaction/interaction"
	frame "github.com/armature-robotics/interaction/referenceframe"
	spatial "github.com/armature-robotics/interaction/spatialmath"
)

func makeArmState(t *testing.T) *interaction.RobotState {
	t.Helper()
	model := frame.NewSimpleModel("arm")
	j1, err := frame.NewRotationalFrame("j1", spatial.R4AA{RZ: 1}, frame.Limit{Min: -math.Pi, Max: math.Pi})
	test.That(t, err, test.ShouldBeNil)
	l1, err := frame.NewStaticFrame("l1", spatial.NewPoseFromPoint(r3.Vector{X: 100}))
	test.That(t, err, test.ShouldBeNil)
	j2, err := frame.NewRotationalFrame("j2", spatial.R4AA{RZ: 1}, frame.Limit{Min: -math.Pi, Max: math.Pi})
	test.That(t, err, test.ShouldBeNil)
	l2, err := frame.NewStaticFrame("l2", spatial.NewPoseFromPoint(r3.Vector{X: 100}))
	test.That(t, err, test.ShouldBeNil)
	model.OrdTransforms = []frame.Frame{j1, l1, j2, l2}
	return interaction.NewRobotState(model)
}

type serverFixture struct {
	ri      *interaction.RobotInteraction
	handler *interaction.Handler
	server  *Server
	updates chan struct{}
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	logger := golog.NewTestLogger(t)
	ri := interaction.NewRobotInteraction(logger)
	h := interaction.NewHandler("right", makeArmState(t), logger)
	ri.AddHandler(h)
	ri.DecideActiveComponents(h.State())

	f := &serverFixture{
		ri:      ri,
		handler: h,
		server:  NewServer(ri, logger),
		updates: make(chan struct{}, 10),
	}
	h.SetUpdateCallback(func(*interaction.Handler, bool) { f.updates <- struct{}{} })
	t.Cleanup(func() {
		test.That(t, f.server.Close(context.Background()), test.ShouldBeNil)
		test.That(t, ri.Close(context.Background()), test.ShouldBeNil)
	})
	return f
}

func (f *serverFixture) waitForUpdate(t *testing.T) {
	t.Helper()
	select {
	case <-f.updates:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a state update")
	}
}

func jointFeedbackBody(t *testing.T, theta float64) []byte {
	t.Helper()
	pose := NewPoseMessage(spatial.NewPoseFromOrientation(&spatial.R4AA{Theta: theta, RZ: 1}))
	body, err := json.Marshal(FeedbackMessage{
		MarkerName: "right/JJ:j1",
		Event:      "pose_update",
		Pose:       &pose,
	})
	test.That(t, err, test.ShouldBeNil)
	return body
}

func TestServerFeedback(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", bytes.NewReader(jointFeedbackBody(t, 0.25)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	test.That(t, rec.Code, test.ShouldEqual, http.StatusAccepted)

	f.waitForUpdate(t)
	positions, err := f.handler.State().Positions("arm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, positions[0].Value, test.ShouldAlmostEqual, 0.25, 1e-6)
}

func TestServerFeedbackRejectsBadMessages(t *testing.T) {
	f := newServerFixture(t)

	for _, body := range []string{
		"{not json",
		`{"marker_name":"right/JJ:j1","event":"no_such_event"}`,
		`{"event":"pose_update"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		f.server.Handler().ServeHTTP(rec, req)
		test.That(t, rec.Code, test.ShouldEqual, http.StatusBadRequest)
	}
}

func TestServerListMarkers(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/markers", nil)
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	test.That(t, rec.Code, test.ShouldEqual, http.StatusOK)

	var snapshot SnapshotMessage
	test.That(t, json.Unmarshal(rec.Body.Bytes(), &snapshot), test.ShouldBeNil)
	test.That(t, len(snapshot.Markers), test.ShouldEqual, 3)

	names := map[string]MarkerStatusMessage{}
	for _, marker := range snapshot.Markers {
		names[marker.Name] = marker
	}
	eef, ok := names["right/EE:l2"]
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, eef.Handler, test.ShouldEqual, "right")
	test.That(t, eef.Pose, test.ShouldNotBeNil)
	test.That(t, eef.Pose.X, test.ShouldAlmostEqual, 200, 1e-6)
}

func TestServerWebSocket(t *testing.T) {
	f := newServerFixture(t)

	httpServer := httptest.NewServer(f.server.Handler())
	defer httpServer.Close()

	wsURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	test.That(t, err, test.ShouldBeNil)
	if resp != nil {
		defer func() {
			test.That(t, resp.Body.Close(), test.ShouldBeNil)
		}()
	}
	defer func() {
		test.That(t, conn.Close(), test.ShouldBeNil)
	}()

	// the server greets new clients with a snapshot
	var snapshot SnapshotMessage
	test.That(t, conn.ReadJSON(&snapshot), test.ShouldBeNil)
	test.That(t, len(snapshot.Markers), test.ShouldEqual, 3)

	pose := NewPoseMessage(spatial.NewPoseFromOrientation(&spatial.R4AA{Theta: -0.5, RZ: 1}))
	test.That(t, conn.WriteJSON(FeedbackMessage{
		MarkerName: "right/JJ:j1",
		Event:      "pose_update",
		Pose:       &pose,
	}), test.ShouldBeNil)

	f.waitForUpdate(t)
	positions, err := f.handler.State().Positions("arm")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, positions[0].Value, test.ShouldAlmostEqual, -0.5, 1e-6)
}

