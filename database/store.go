package database

import (
	"context"
	"errors"
	"time"

	"interview-scheduler/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// InterviewFilter selects interviews. Zero-valued fields do not filter.
type InterviewFilter struct {
	CandidateID   uint
	From          *time.Time // interview_date >= From
	To            *time.Time // interview_date <= To
	Until         *time.Time // interview_date <  Until
	At            *time.Time // interview_date == At
	ExcludeID     uint
	ActiveOnly    bool // status <> cancelled
	Statuses      []models.InterviewStatus
	WithCandidate bool
	Limit         int
}

// CandidateQuery drives candidate search. Structured fields take precedence
// over the free-text Query.
type CandidateQuery struct {
	Query     string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Country   string
	Limit     int
	Offset    int
}

func (q CandidateQuery) structured() bool {
	return q.FirstName != "" || q.LastName != "" || q.Email != "" || q.Phone != ""
}

// Session is the persistence collaborator as seen from inside (or outside)
// a unit of work.
type Session interface {
	FindCandidate(ctx context.Context, id uint) (*models.Candidate, error)
	// LockCandidate loads the candidate and holds a row lock until the
	// surrounding transaction ends.
	LockCandidate(ctx context.Context, id uint) (*models.Candidate, error)
	FindCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error)
	SearchCandidates(ctx context.Context, q CandidateQuery) ([]models.Candidate, int64, error)
	CreateCandidate(ctx context.Context, c *models.Candidate) error
	SaveCandidate(ctx context.Context, c *models.Candidate) error
	DeleteCandidate(ctx context.Context, id uint) error

	FindInterview(ctx context.Context, id uint) (*models.Interview, error)
	ListInterviews(ctx context.Context, f InterviewFilter) ([]models.Interview, error)
	CountInterviewsByStatus(ctx context.Context, f InterviewFilter) (map[models.InterviewStatus]int64, error)
	CountInterviews(ctx context.Context, f InterviewFilter) (int64, error)
	CreateInterview(ctx context.Context, iv *models.Interview) error
	SaveInterview(ctx context.Context, iv *models.Interview) error
	DeleteInterview(ctx context.Context, id uint) error

	CreateDraft(ctx context.Context, d *models.Draft) error
}

// Store is a Session that can also open a transaction. fn's Session is bound
// to the transaction; returning an error rolls it back.
type Store interface {
	Session
	Transaction(ctx context.Context, fn func(Session) error) error
}
