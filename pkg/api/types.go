// Package api serves turn engine sessions over HTTP/JSON, Server-Sent Events
// and WebSocket.
package api

import (
	"github.com/yourusername/bgturn/pkg/engine"
)

// ============================================================================
// Request Types
// ============================================================================

// CreateSessionRequest is the optional body of POST /api/sessions. Unset
// fields take the server defaults.
type CreateSessionRequest struct {
	Seed               *int64 `json:"seed,omitempty"`                  // Dice seed (default: time based)
	AutoRoll           *bool  `json:"auto_roll,omitempty"`             // Roll as soon as a turn starts
	EndTurnWhenBlocked *bool  `json:"end_turn_when_blocked,omitempty"` // End a move phase with no legal move
}

// FieldRequest is the body of the select and commit endpoints.
type FieldRequest struct {
	Field int `json:"field"` // Field index 0-23
}

// ============================================================================
// Response Types
// ============================================================================

// HealthResponse is the response for health check.
type HealthResponse struct {
	Status   string     `json:"status"`
	Version  string     `json:"version"`
	Sessions int        `json:"sessions"`
	Pool     *PoolStats `json:"pool,omitempty"`
}

// DieResponse describes one die.
type DieResponse struct {
	Face  int    `json:"face"`  // 0 before the first roll
	Usage string `json:"usage"` // unused, half_used, fully_used
}

// FieldResponse describes one occupied field.
type FieldResponse struct {
	Index int    `json:"index"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

// BandResponse counts the pawns on the band.
type BandResponse struct {
	Red   int `json:"red"`
	White int `json:"white"`
}

// MoveResponse is one candidate move.
type MoveResponse struct {
	Start int `json:"start"`
	Steps int `json:"steps"`
	Dest  int `json:"dest"`
}

// SnapshotResponse is the full observable state of a session.
type SnapshotResponse struct {
	ID         string          `json:"id"`
	State      string          `json:"state"`
	Player     string          `json:"player"`
	Dice       []DieResponse   `json:"dice"`
	Fields     []FieldResponse `json:"fields"`
	Band       BandResponse    `json:"band"`
	Candidates []MoveResponse  `json:"candidates"`
	PositionID string          `json:"position_id"`
}

// ActionResponse is returned by the roll, select and commit endpoints.
type ActionResponse struct {
	OK       bool             `json:"ok"` // Whether the engine accepted the request
	Snapshot SnapshotResponse `json:"snapshot"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes.
const (
	CodeInvalidJSON  = "INVALID_JSON"
	CodeNotFound     = "NOT_FOUND"
	CodeInvalidField = "INVALID_FIELD"
	CodeServerBusy   = "SERVER_BUSY"
)

// ============================================================================
// Events
// ============================================================================

// Event is a notification pushed to SSE and WebSocket subscribers.
type Event struct {
	Type string `json:"type"` // state, rolled, used, moved
	Data any    `json:"data"`
}

// StateEvent reports a state transition.
type StateEvent struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Player string `json:"player"`
}

// RolledEvent reports a settled die.
type RolledEvent struct {
	Die  int `json:"die"`
	Face int `json:"face"`
}

// UsedEvent reports a die usage change.
type UsedEvent struct {
	Die   int    `json:"die"`
	Usage string `json:"usage"`
}

// MovedEvent reports a committed move.
type MovedEvent struct {
	Player string `json:"player"`
	Start  int    `json:"start"`
	Steps  int    `json:"steps"`
	Dest   int    `json:"dest"`
	Hit    bool   `json:"hit"`
}

// snapshotOf builds the response for e. It must run on the session loop.
func snapshotOf(id string, e *engine.TurnEngine) SnapshotResponse {
	snap := SnapshotResponse{
		ID:         id,
		State:      e.State().String(),
		Player:     e.CurrentPlayer().String(),
		Dice:       []DieResponse{},
		Fields:     []FieldResponse{},
		Candidates: []MoveResponse{},
	}
	if !e.Ready() {
		return snap
	}

	for i := 0; i < engine.NumDice; i++ {
		d := e.Dice().Die(i)
		snap.Dice = append(snap.Dice, DieResponse{Face: d.Face(), Usage: d.Usage().String()})
	}
	for _, f := range e.Board().Fields() {
		owner, ok := f.Owner()
		if !ok {
			continue
		}
		snap.Fields = append(snap.Fields, FieldResponse{Index: f.Index(), Color: owner.String(), Count: f.Len()})
	}
	band := e.Board().Band()
	snap.Band = BandResponse{Red: band.Count(engine.Red), White: band.Count(engine.White)}
	for _, m := range e.Candidates() {
		snap.Candidates = append(snap.Candidates, MoveResponse{Start: m.Start, Steps: m.Steps, Dest: m.Dest})
	}
	snap.PositionID = e.Board().PositionID(e.CurrentPlayer())
	return snap
}
