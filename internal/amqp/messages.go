package amqp

import (
	"encoding/json"
	"time"
)

// Actions carried by activity messages.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionCommit = "commit" // import candidate promoted to an entity
	ActionSkip   = "skip"   // import candidate discarded during review
)

// ActivityMessage records one settled mutation or import review decision.
// The ledger worker consumes these and appends them to the local history
// database.
type ActivityMessage struct {
	Action    string    `json:"action"`
	Entity    string    `json:"entity"` // collection name: expenses, incomes, ...
	EntityID  int64     `json:"entity_id,omitempty"`
	Name      string    `json:"name,omitempty"`
	Amount    string    `json:"amount,omitempty"`
	Date      string    `json:"date,omitempty"` // dd/MM/yyyy
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivityMessage creates an activity message stamped with the current time.
func NewActivityMessage(action, entity string) *ActivityMessage {
	return &ActivityMessage{
		Action:    action,
		Entity:    entity,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON creates a message from JSON bytes
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
