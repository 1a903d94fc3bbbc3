package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const (
	messageTypeSync   = "expense.sync"
	messageTypeDelete = "expense.delete"
)

// envelope wraps every queue message with a type tag so one queue can carry
// both sync and delete traffic.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ExpenseSyncMessage asks the worker to export one expense. It carries only
// the ID and version; the worker fetches the full record from storage.
type ExpenseSyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// ExpenseDeleteMessage asks the worker to remove an exported expense. The
// local row is already gone when this is published, so the message carries
// enough data to locate the spreadsheet row.
type ExpenseDeleteMessage struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"created_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(id, version int64) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{ID: id, Version: version, Timestamp: time.Now()}
}

func NewExpenseDeleteMessage(e core.Expense) *ExpenseDeleteMessage {
	return &ExpenseDeleteMessage{
		ID:          e.ID,
		UserID:      e.UserID,
		Description: e.Description,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		CreatedAt:   e.CreatedAt,
		Timestamp:   time.Now(),
	}
}

func encodeMessage(msgType string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return json.Marshal(envelope{Type: msgType, Payload: body})
}

func decodeEnvelope(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return envelope{}, fmt.Errorf("message missing type tag")
	}
	return env, nil
}
