// Package events publishes notifications about completed imports.
package events

import (
	"encoding/json"
	"time"
)

// ImportCompleted is published once an import has been persisted. It
// carries counts only; consumers read the operations from the record store.
type ImportCompleted struct {
	ImportID     string    `json:"import_id"`
	Format       string    `json:"format"`
	Filename     string    `json:"filename,omitempty"`
	Imported     int       `json:"imported"`
	Failed       int       `json:"failed"`
	SkippedLines int       `json:"skipped_lines"`
	Timestamp    time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes.
func (m *ImportCompleted) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ImportCompletedFromJSON decodes a message.
func ImportCompletedFromJSON(data []byte) (*ImportCompleted, error) {
	var msg ImportCompleted
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
