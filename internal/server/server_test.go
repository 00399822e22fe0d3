package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/cxd309/roadgrid-engine/internal/action"
	"github.com/cxd309/roadgrid-engine/internal/config"
	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/event"
	"github.com/cxd309/roadgrid-engine/internal/grid"
)

const lineLevel = `{"name": "line", "rows": 1, "cols": 3,
	"car_types": [{"color": "red", "entrances": [{"row": 1, "col": 0}], "exit": {"row": 1, "col": 4}}]}`

func fastConfig() config.Config {
	cfg := config.Default()
	cfg.TickSeconds = 0.01
	cfg.SpawnInterval = 0.1
	cfg.SpawnJitter = 0
	cfg.SpawnDelay = 0
	cfg.CellTravelTime = 0.1
	cfg.MinSampleFactor = 1
	cfg.MaxPerType = 1
	return cfg
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(fastConfig(), log.New(io.Discard))
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	return ts
}

func createSession(t *testing.T, ts *httptest.Server) createResponse {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(lineLevel))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func dial(t *testing.T, ts *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	raw, _ := json.Marshal(payload)
	if err := conn.WriteJSON(message{Type: typ, Payload: raw}); err != nil {
		t.Fatal(err)
	}
}

// readUntil reads messages until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestCreateAndGetSession(t *testing.T) {
	ts := newTestServer(t)
	created := createSession(t, ts)
	if created.ID == "" || created.Snapshot.Phase != engine.PhaseBuild || !created.Report.Valid {
		t.Fatalf("created = %+v", created)
	}

	resp, err := http.Get(ts.URL + "/api/sessions/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var snap engine.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatal(err)
	}
	if snap.Level != "line" || snap.Dims.Cols != 3 {
		t.Errorf("snapshot = %+v", snap)
	}

	resp, err = http.Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var ids []string
	json.NewDecoder(resp.Body).Decode(&ids)
	if len(ids) != 1 || ids[0] != created.ID {
		t.Errorf("ids = %v", ids)
	}
}

func TestCreateRejectsInvalidLevel(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/sessions", "application/json", strings.NewReader(`{"rows": 2, "cols": 2}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", resp.StatusCode)
	}
	var report struct {
		Valid  bool `json:"valid"`
		Errors []struct {
			Path string `json:"path"`
		} `json:"errors"`
	}
	json.NewDecoder(resp.Body).Decode(&report)
	if report.Valid || len(report.Errors) == 0 || report.Errors[0].Path != "car_types" {
		t.Errorf("report = %+v", report)
	}
}

func TestUnknownAndDeletedSession(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/sessions/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	id := createSession(t, ts).ID
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/sessions/"+id, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d, want 204", resp.StatusCode)
	}
	resp, err = http.Get(ts.URL + "/api/sessions/" + id)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", resp.StatusCode)
	}
}

func TestPlayOverWebsocket(t *testing.T) {
	ts := newTestServer(t)
	id := createSession(t, ts).ID
	conn := dial(t, ts, id)
	readUntil(t, conn, msgSnapshot)

	send(t, conn, action.Start, nil)
	var res action.Result
	json.Unmarshal(readUntil(t, conn, msgActionResult).Payload, &res)
	if res.OK || !strings.Contains(res.Error, "no roads") {
		t.Errorf("start without roads = %+v", res)
	}

	for col := 0; col < 3; col++ {
		send(t, conn, action.AddRoad, action.RoadPayload{Row: 0, Col: col})
		json.Unmarshal(readUntil(t, conn, msgActionResult).Payload, &res)
		if !res.OK {
			t.Fatalf("add road %d: %+v", col, res)
		}
	}
	send(t, conn, action.SetDirections, action.RoadPayload{Row: 0, Col: 2, Directions: []grid.Direction{grid.Right}})
	json.Unmarshal(readUntil(t, conn, msgActionResult).Payload, &res)
	if !res.OK {
		t.Fatalf("set directions: %+v", res)
	}

	send(t, conn, action.Start, nil)
	readUntil(t, conn, string(event.KindRunStarted))

	send(t, conn, action.AddRoad, action.RoadPayload{Row: 0, Col: 0})
	json.Unmarshal(readUntil(t, conn, msgActionResult).Payload, &res)
	if res.OK || !strings.Contains(res.Error, "running") {
		t.Errorf("edit while running = %+v", res)
	}

	won := readUntil(t, conn, string(event.KindLevelWon))
	var payload event.LevelWon
	if err := json.Unmarshal(won.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Stats.Reached < 1 || payload.SuccessRate != 1 {
		t.Errorf("level won = %+v", payload)
	}

	send(t, conn, "teleport", nil)
	json.Unmarshal(readUntil(t, conn, msgActionResult).Payload, &res)
	if res.OK || !strings.Contains(res.Error, "unknown action") {
		t.Errorf("unknown action = %+v", res)
	}
}
