package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Operations carried by ExpensesChangedMessage.
const (
	OperationAdd    = "add"
	OperationEdit   = "edit"
	OperationDelete = "delete"
)

// ExpensesChangedMessage announces that the expense list was saved.
// It carries a snapshot of the totals only; consumers reload the list
// from the store when they need the records.
type ExpensesChangedMessage struct {
	Operation string    `json:"operation"`
	Position  int       `json:"position"`
	Count     int       `json:"count"`
	Total     string    `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpensesChangedMessage(operation string, position, count int, total decimal.Decimal) *ExpensesChangedMessage {
	return &ExpensesChangedMessage{
		Operation: operation,
		Position:  position,
		Count:     count,
		Total:     total.String(),
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpensesChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpensesChangedMessageFromJSON decodes a message body.
func ExpensesChangedMessageFromJSON(data []byte) (*ExpensesChangedMessage, error) {
	var msg ExpensesChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
