package events

import (
	"encoding/json"
	"time"
)

// SnapshotSyncedMessage announces a new snapshot. It carries identifiers and a
// few headline numbers; consumers read the snapshot itself through the API.
type SnapshotSyncedMessage struct {
	PortfolioID int64     `json:"portfolioId"`
	SnapshotID  string    `json:"snapshotId"`
	SyncRunID   string    `json:"syncRunId"`
	RecordCount int       `json:"recordCount"`
	FirstDate   string    `json:"firstDate,omitempty"`
	LastDate    string    `json:"lastDate,omitempty"`
	FinalEquity float64   `json:"finalEquity"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotSyncedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SnapshotSyncedMessageFromJSON creates a message from JSON bytes
func SnapshotSyncedMessageFromJSON(data []byte) (*SnapshotSyncedMessage, error) {
	var msg SnapshotSyncedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
