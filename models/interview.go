package models

import (
	"strings"
	"time"
)

type InterviewStatus string

const (
	StatusPending     InterviewStatus = "pending"
	StatusConfirmed   InterviewStatus = "confirmed"
	StatusRescheduled InterviewStatus = "rescheduled"
	StatusCancelled   InterviewStatus = "cancelled"
	StatusCompleted   InterviewStatus = "completed"
)

// InterviewStatuses lists every status in display order.
var InterviewStatuses = []InterviewStatus{
	StatusPending, StatusConfirmed, StatusRescheduled, StatusCancelled, StatusCompleted,
}

// ParseInterviewStatus accepts any casing and reports whether s names a known status.
func ParseInterviewStatus(s string) (InterviewStatus, bool) {
	st := InterviewStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range InterviewStatuses {
		if st == known {
			return st, true
		}
	}
	return "", false
}

// Interview is one scheduled meeting. InterviewDate is wall-clock time with no
// zone semantics; it is always stored and compared as UTC.
type Interview struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	CandidateID   uint            `json:"candidate_id" gorm:"not null;index"`
	Candidate     *Candidate      `json:"candidate,omitempty" gorm:"foreignKey:CandidateID;references:Id"`
	InterviewDate time.Time       `json:"interview_date" gorm:"not null;index"`
	InterviewTime string          `json:"interview_time" gorm:"size:20"`
	DayOfWeek     string          `json:"day_of_week" gorm:"size:20"`
	Status        InterviewStatus `json:"status" gorm:"size:50;default:pending"`
	MeetLink      string          `json:"meet_link" gorm:"size:500"`
	Notes         string          `json:"notes"`
	EmailSent     bool            `json:"email_sent"`
	EmailSentAt   *time.Time      `json:"email_sent_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Active reports whether the interview still occupies its slot.
func (interview *Interview) Active() bool {
	return interview.Status != StatusCancelled
}
