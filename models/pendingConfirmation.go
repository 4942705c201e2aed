package models

import (
	"time"

	"gorm.io/datatypes"
)

// PendingConfirmation is the single outstanding sensitive-action proposal of an actor.
type PendingConfirmation struct {
	Actor       string         `json:"actor" gorm:"primaryKey;size:255"`
	Token       string         `json:"-" gorm:"size:64;not null"`
	ToolName    string         `json:"tool_name" gorm:"size:64;not null"`
	Fingerprint string         `json:"fingerprint" gorm:"size:64;not null"` // sha256 of canonical arguments
	Arguments   datatypes.JSON `json:"arguments"`
	CreatedAt   time.Time      `json:"created_at"`
}
