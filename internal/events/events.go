package events

import (
	"encoding/json"
	"time"
)

const (
	TypePing            = "ping"
	TypeJobAdded        = "job_added"
	TypeImportFinished  = "import_finished"
	TypeMailboxFinished = "mailbox_finished"
)

// Version of the event envelope.
const Version = 1

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent returns the JSON envelope sent to SSE clients.
func MakeEvent(reqID, typ string, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   Version,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}

// JobAdded is the payload of a job_added event.
type JobAdded struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Location string `json:"location"`
	URL      string `json:"url"`
	Date     string `json:"date"`
	Source   string `json:"source"`
}

// ImportFinished is the payload of import_finished and mailbox_finished.
type ImportFinished struct {
	Added int    `json:"added"`
	Error string `json:"error,omitempty"`
}
