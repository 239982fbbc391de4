package amqp

import (
	"encoding/json"
	"time"
)

const (
	ActionCreated = "created"
	ActionDeleted = "deleted"
)

// TransactionEvent is the message published when a transaction is created or
// deleted. It carries only identifiers; consumers read whatever else they
// need from the database.
type TransactionEvent struct {
	TransactionID int64     `json:"transactionId"`
	UserID        int64     `json:"userId"`
	Action        string    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event for the given transaction and action.
func NewTransactionEvent(transactionID, userID int64, action string) *TransactionEvent {
	return &TransactionEvent{
		TransactionID: transactionID,
		UserID:        userID,
		Action:        action,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON creates an event from JSON bytes
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
