package models

import (
	"time"

	"gorm.io/datatypes"
)

// Draft is an unsent email composed by a user or by the agent on their behalf.
type Draft struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	SenderEmail string         `json:"sender_email" gorm:"size:255;not null;index"`
	Subject     string         `json:"subject" gorm:"size:255"`
	TemplateID  string         `json:"template_id" gorm:"size:50"`
	HTMLContent string         `json:"html_content"`
	Recipients  datatypes.JSON `json:"recipients"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
