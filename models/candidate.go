package models

import "time"

type Candidate struct {
	Id          uint        `json:"id" gorm:"primaryKey"`
	FirstName   string      `json:"first_name" gorm:"size:100;not null;index"`
	LastName    string      `json:"last_name" gorm:"size:100;not null;index"`
	Email       string      `json:"email" gorm:"size:255;unique;not null"`
	Phone       string      `json:"phone" gorm:"size:50"`
	Country     string      `json:"country" gorm:"size:50;default:US;index"`
	Address     string      `json:"address"`
	Citizenship string      `json:"citizenship" gorm:"size:100"`
	Status      string      `json:"-" gorm:"size:50"`
	Notes       string      `json:"notes"`
	Interviews  []Interview `json:"-" gorm:"foreignKey:CandidateID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (candidate *Candidate) FullName() string {
	if candidate.LastName == "" {
		return candidate.FirstName
	}
	return candidate.FirstName + " " + candidate.LastName
}

// CandidateSummary is the reduced view handed to the agent and the LLM.
type CandidateSummary struct {
	Id       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Country  string `json:"country"`
}

func (candidate *Candidate) Summary() CandidateSummary {
	return CandidateSummary{
		Id:       candidate.Id,
		FullName: candidate.FullName(),
		Email:    candidate.Email,
		Phone:    candidate.Phone,
		Country:  candidate.Country,
	}
}
