package websocket

import (
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/roster"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionToggle Action = "toggle"
	ActionSave   Action = "save"
	ActionReload Action = "reload"
	ActionPing   Action = "ping"
)

// RequestPayload is every message a client may send on the attendance
// stream. Fields not used by the action are ignored.
type RequestPayload struct {
	Action    Action `json:"action"`
	StudentID string `json:"student_id,omitempty"`
	Day       int    `json:"day,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError  Event = "error"
	EventSheet  Event = "sheet"
	EventCell   Event = "cell"
	EventSaved  Event = "saved"
	EventRoster Event = "roster"
	EventPong   Event = "pong"
)

// SheetResponse carries a freshly assembled sheet.
type SheetResponse struct {
	Event Event                  `json:"event"`
	Sheet *model.AttendanceSheet `json:"sheet"`
}

// CellResponse acknowledges a toggle with the cell's new value.
type CellResponse struct {
	Event     Event      `json:"event"`
	StudentID string     `json:"student_id"`
	Day       int        `json:"day"`
	Mark      model.Mark `json:"mark"`
}

type SavedResponse struct {
	Event Event `json:"event"`
	Rows  int   `json:"rows"`
}

// RosterResponse mirrors one roster transition and the state after it.
// Action is empty for the snapshot sent on connect.
type RosterResponse struct {
	Event  Event          `json:"event"`
	Action *roster.Action `json:"action,omitempty"`
	State  roster.State   `json:"state"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
