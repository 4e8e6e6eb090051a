package events

import (
	"encoding/json"
	"time"
)

// TransactionCreatedMessage notifies the export worker that a transaction
// was recorded. It carries only the ID; the worker fetches the full row
// from the backend before exporting.
type TransactionCreatedMessage struct {
	TransactionID string    `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionCreatedMessage(transactionID string) *TransactionCreatedMessage {
	return &TransactionCreatedMessage{
		TransactionID: transactionID,
		Timestamp:     time.Now(),
	}
}

func (m *TransactionCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionCreatedMessageFromJSON(data []byte) (*TransactionCreatedMessage, error) {
	var msg TransactionCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
