//go:build js && wasm

// Command wasm exposes the engine to the browser via WebAssembly.
// After loading, it registers these global JavaScript functions:
//
//	runSimulation(runInputJSON) -> runLogJSON
//	createSession(levelText, [configJSON]) -> {"id", "report"} JSON
//	sessionAction(id, type, [payloadJSON]) -> {"result", "snapshot"} JSON
//	sessionAdvance(id, seconds) -> JSON array of event envelopes
//	sessionSnapshot(id) -> snapshot JSON
//	closeSession(id)
//
// Failures are returned as {"error": message} objects. The page drives time:
// it calls sessionAdvance from its animation frame with the elapsed seconds.
package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"github.com/cxd309/roadgrid-engine/internal/action"
	"github.com/cxd309/roadgrid-engine/internal/config"
	"github.com/cxd309/roadgrid-engine/internal/engine"
	"github.com/cxd309/roadgrid-engine/internal/event"
	"github.com/cxd309/roadgrid-engine/internal/level"
)

var (
	sessions = map[int]*engine.Session{}
	nextID   = 1
)

func main() {
	js.Global().Set("runSimulation", js.FuncOf(runSimulation))
	js.Global().Set("createSession", js.FuncOf(createSession))
	js.Global().Set("sessionAction", js.FuncOf(sessionAction))
	js.Global().Set("sessionAdvance", js.FuncOf(sessionAdvance))
	js.Global().Set("sessionSnapshot", js.FuncOf(sessionSnapshot))
	js.Global().Set("closeSession", js.FuncOf(closeSession))
	select {} // keep the WASM module alive until the page is closed
}

func failure(err error) any {
	return map[string]any{"error": err.Error()}
}

func encode(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return failure(err)
	}
	return string(data)
}

func runSimulation(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure(errors.New("no input provided"))
	}

	result, err := engine.RunJSON(args[0].String())
	if err != nil {
		return failure(err)
	}
	return result
}

func createSession(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return failure(errors.New("no level provided"))
	}
	lvl, report, err := level.Parse([]byte(args[0].String()))
	if err != nil {
		var invalid *level.InvalidError
		if errors.As(err, &invalid) {
			return encode(map[string]any{"error": err.Error(), "report": report})
		}
		return failure(err)
	}
	cfg := config.Default()
	if len(args) > 1 && args[1].Type() == js.TypeString {
		if cfg, err = config.Parse([]byte(args[1].String())); err != nil {
			return failure(err)
		}
	}
	s, err := engine.NewSession(lvl, cfg)
	if err != nil {
		return failure(err)
	}
	id := nextID
	nextID++
	sessions[id] = s
	return encode(map[string]any{"id": id, "report": report})
}

func lookup(args []js.Value) (*engine.Session, error) {
	if len(args) < 1 {
		return nil, errors.New("no session id provided")
	}
	s, ok := sessions[args[0].Int()]
	if !ok {
		return nil, errors.New("session not found")
	}
	return s, nil
}

func sessionAction(_ js.Value, args []js.Value) any {
	s, err := lookup(args)
	if err != nil {
		return failure(err)
	}
	if len(args) < 2 {
		return failure(errors.New("no action provided"))
	}
	var payload json.RawMessage
	if len(args) > 2 && args[2].Type() == js.TypeString {
		payload = json.RawMessage(args[2].String())
	}
	res, _ := action.Apply(s, args[1].String(), payload)
	return encode(map[string]any{"result": res, "snapshot": s.Snapshot()})
}

func sessionAdvance(_ js.Value, args []js.Value) any {
	s, err := lookup(args)
	if err != nil {
		return failure(err)
	}
	if len(args) > 1 {
		s.Advance(args[1].Float())
	}
	out := []json.RawMessage{}
	for _, st := range s.DrainEvents() {
		data, err := event.Marshal(st.Event, st.At)
		if err != nil {
			return failure(err)
		}
		out = append(out, data)
	}
	return encode(out)
}

func sessionSnapshot(_ js.Value, args []js.Value) any {
	s, err := lookup(args)
	if err != nil {
		return failure(err)
	}
	return encode(s.Snapshot())
}

func closeSession(_ js.Value, args []js.Value) any {
	if len(args) > 0 {
		delete(sessions, args[0].Int())
	}
	return nil
}
