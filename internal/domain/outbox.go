package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxDispatched OutboxStatus = "dispatched"
	OutboxFailed     OutboxStatus = "failed"
)

// OutboxEvent is written in the same transaction as the state change it
// announces and relayed to the broker afterwards.
type OutboxEvent struct {
	ID           string         `json:"id" gorm:"primaryKey;size:36"`
	AggregateID  uint64         `json:"aggregateId" gorm:"index;not null"`
	EventType    string         `json:"eventType" gorm:"size:64;not null"`
	Payload      datatypes.JSON `json:"payload" gorm:"not null"`
	Status       OutboxStatus   `json:"status" gorm:"type:varchar(16);index;not null"`
	Attempts     int            `json:"attempts" gorm:"not null;default:0"`
	LastError    string         `json:"lastError,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"autoCreateTime;index"`
	DispatchedAt *time.Time     `json:"dispatchedAt,omitempty"`
}

func NewOutboxEvent(eventType string, evt OrderEvent) (*OutboxEvent, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return &OutboxEvent{
		ID:          uuid.NewString(),
		AggregateID: evt.OrderID,
		EventType:   eventType,
		Payload:     datatypes.JSON(payload),
		Status:      OutboxPending,
	}, nil
}
