package events

import (
	"encoding/json"
	"strings"
	"time"
)

// Run lifecycle event types.
const (
	RunStarted   = "run.started"
	ClassDone    = "scan.class"
	DraftQueued  = "draft.queued"
	DraftStatus  = "draft.status"
	ConfigSaved  = "config.saved"
	RunFinished  = "run.finished"
	RunFailed    = "run.failed"
	Ping         = "ping"
	eventVersion = 1
)

// Event is one notification as it goes over the wire. Data is encoded once
// when the event is built.
type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func New(reqID, typ string, data any) Event {
	e := Event{
		Type:      typ,
		Version:   eventVersion,
		At:        time.Now().UTC(),
		RequestID: reqID,
	}
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			e.Data = b
		}
	}
	return e
}

func (e Event) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// Matches reports whether the event passes a type filter. Entries ending in
// "." match a whole family ("run." matches run.started). An empty filter
// matches everything.
func (e Event) Matches(types []string) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == e.Type || (strings.HasSuffix(t, ".") && strings.HasPrefix(e.Type, t)) {
			return true
		}
	}
	return false
}
