package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Activity actions carried by ExpenseActivityMessage.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Activity sources.
const (
	SourceWeb = "web"
	SourceCLI = "cli"
)

// ExpenseActivityMessage records one successful mutation made through a client.
// It is informational: the API remains the source of truth.
type ExpenseActivityMessage struct {
	Action     string    `json:"action"`
	ExpenseID  int64     `json:"expense_id"`
	CategoryID int64     `json:"category_id,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Date       string    `json:"date,omitempty"`
	Source     string    `json:"source"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewExpenseActivityMessage(action string, expenseID int64, source string) *ExpenseActivityMessage {
	return &ExpenseActivityMessage{
		Action:    action,
		ExpenseID: expenseID,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ExpenseActivityMessage) Validate() error {
	switch m.Action {
	case ActionCreated, ActionUpdated, ActionDeleted:
	default:
		return fmt.Errorf("unknown action %q", m.Action)
	}
	if m.ExpenseID <= 0 {
		return errors.New("expense_id must be positive")
	}
	return nil
}

func (m *ExpenseActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseActivityMessageFromJSON decodes and validates a message body.
func ExpenseActivityMessageFromJSON(data []byte) (*ExpenseActivityMessage, error) {
	var msg ExpenseActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
