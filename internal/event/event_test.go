package event

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/cxd309/roadgrid-engine/internal/grid"
	"github.com/cxd309/roadgrid-engine/internal/outcome"
	"github.com/cxd309/roadgrid-engine/internal/vehicle"
)

func TestEnvelopeShape(t *testing.T) {
	data, err := Marshal(VehicleMoved{Vehicle: 3, From: grid.Cell{Row: 1, Col: 0}, To: grid.Cell{Row: 1, Col: 1}}, 2.5)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["type"] != "vehicle_moved" || raw["time"] != 2.5 {
		t.Errorf("envelope = %s", data)
	}
	payload, ok := raw["payload"].(map[string]any)
	if !ok || payload["vehicle"] != float64(3) {
		t.Errorf("payload = %v", raw["payload"])
	}
}

func TestUnmarshalRestoresConcreteType(t *testing.T) {
	stats := outcome.NewStats(2)
	stats.RecordSpawn(1)
	stats.RecordFailed(1)
	in := LevelLost{Stats: stats, Reason: "blocked_at_entrance", Vehicle: 7}

	data, err := Marshal(in, 11)
	if err != nil {
		t.Fatal(err)
	}
	e, at, err := Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := e.(LevelLost)
	if !ok {
		t.Fatalf("decoded %T, want LevelLost", e)
	}
	if at != 11 || got.Reason != in.Reason || got.Vehicle != 7 || got.Stats.ByType[1].Failed != 1 {
		t.Errorf("decoded %+v at %v", got, at)
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, _, err := Unmarshal([]byte(`{"type":"teleported","payload":{}}`))
	if err == nil || !strings.Contains(err.Error(), "teleported") {
		t.Errorf("err = %v, want unknown type error", err)
	}
}

func TestOfType(t *testing.T) {
	events := []Event{
		VehicleSpawned{Vehicle: 1},
		VehicleMoved{Vehicle: 1},
		VehicleFailed{Vehicle: 2, Reason: vehicle.ReasonTimeout},
		VehicleMoved{Vehicle: 3},
	}
	moved := OfType[VehicleMoved](events)
	if len(moved) != 2 || moved[0].Vehicle != 1 || moved[1].Vehicle != 3 {
		t.Errorf("moved = %+v", moved)
	}
	if n := len(OfType[LevelWon](events)); n != 0 {
		t.Errorf("won events = %d, want 0", n)
	}
}

func TestStampedJSON(t *testing.T) {
	in := []Stamped{{At: 1.5, Event: RunStarted{Run: 2}}, {At: 3, Event: VehicleRemoved{Vehicle: 4}}}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"type":"run_started"`) {
		t.Errorf("encoded = %s", data)
	}
	var out []Stamped
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].At != 1.5 || out[1].Event != (VehicleRemoved{Vehicle: 4}) {
		t.Errorf("decoded = %+v", out)
	}
	if got := Events(out); got[0] != (RunStarted{Run: 2}) {
		t.Errorf("Events = %+v", got)
	}
}
