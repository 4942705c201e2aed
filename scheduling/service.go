package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"interview-scheduler/database"
	"interview-scheduler/models"
)

const (
	DefaultConflictWindow = time.Hour
	DefaultUpcomingLimit  = 20
)

// Service books, moves and cancels interviews and answers availability
// questions. Every mutating operation runs in one store transaction.
type Service struct {
	store  database.Store
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

type Option func(*Service)

// WithConflictWindow sets the soft window around an existing interview in
// which no other booking for the same candidate is accepted.
func WithConflictWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.window = d
		}
	}
}

func WithLogger(lg zerolog.Logger) Option {
	return func(s *Service) { s.log = lg }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store database.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		window: DefaultConflictWindow,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ConflictWindow() time.Duration { return s.window }

// ScheduleRequest describes a new interview. Only CandidateID and
// InterviewDate are required.
type ScheduleRequest struct {
	CandidateID   uint
	InterviewDate time.Time
	InterviewTime string
	DayOfWeek     string
	Status        models.InterviewStatus
	MeetLink      string
	Notes         string
}

// Schedule books an interview after locking the candidate and checking for
// conflicts in the same transaction.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (*models.Interview, error) {
	if req.CandidateID == 0 {
		return nil, invalid("candidate_id", "is required")
	}
	if req.InterviewDate.IsZero() {
		return nil, invalid("interview_date", "is required")
	}
	status := models.StatusPending
	if req.Status != "" {
		st, ok := models.ParseInterviewStatus(string(req.Status))
		if !ok {
			return nil, invalid("status", "unknown status "+string(req.Status))
		}
		status = st
	}

	at := req.InterviewDate.UTC()
	iv := &models.Interview{
		CandidateID:   req.CandidateID,
		InterviewDate: at,
		InterviewTime: strings.TrimSpace(req.InterviewTime),
		DayOfWeek:     strings.TrimSpace(req.DayOfWeek),
		Status:        status,
		MeetLink:      strings.TrimSpace(req.MeetLink),
		Notes:         req.Notes,
	}
	if iv.InterviewTime == "" {
		iv.InterviewTime = at.Format("15:04")
	}
	if iv.DayOfWeek == "" {
		iv.DayOfWeek = strings.ToUpper(at.Weekday().String())
	}

	err := s.store.Transaction(ctx, func(tx database.Session) error {
		if _, err := tx.LockCandidate(ctx, req.CandidateID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrCandidateNotFound
			}
			return &CollaboratorError{Op: "lock candidate", Err: err}
		}
		if err := s.checkConflict(ctx, tx, req.CandidateID, at, 0); err != nil {
			return err
		}
		return tx.CreateInterview(ctx, iv)
	})
	if err != nil {
		return nil, s.outcome("schedule", err, zerolog.Dict().
			Uint("candidate_id", req.CandidateID).
			Time("interview_date", at))
	}

	s.log.Info().Uint("interview_id", iv.ID).Uint("candidate_id", iv.CandidateID).
		Time("interview_date", iv.InterviewDate).Msg("interview scheduled")
	return iv, nil
}

// InterviewChanges is a partial update. Nil fields are left untouched.
type InterviewChanges struct {
	InterviewDate *time.Time
	InterviewTime *string
	DayOfWeek     *string
	Status        *models.InterviewStatus
	MeetLink      *string
	Notes         *string
	EmailSent     *bool
}

// Reschedule applies changes to an interview. A new timestamp, or reviving a
// cancelled interview, is conflict-checked against the candidate's other
// bookings.
func (s *Service) Reschedule(ctx context.Context, id uint, ch InterviewChanges) (*models.Interview, error) {
	if ch.Status != nil {
		st, ok := models.ParseInterviewStatus(string(*ch.Status))
		if !ok {
			return nil, invalid("status", "unknown status "+string(*ch.Status))
		}
		ch.Status = &st
	}
	if ch.InterviewDate != nil && ch.InterviewDate.IsZero() {
		return nil, invalid("interview_date", "must not be empty")
	}

	var out *models.Interview
	err := s.store.Transaction(ctx, func(tx database.Session) error {
		iv, err := tx.FindInterview(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrInterviewNotFound
			}
			return &CollaboratorError{Op: "find interview", Err: err}
		}
		if _, err := tx.LockCandidate(ctx, iv.CandidateID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrCandidateNotFound
			}
			return &CollaboratorError{Op: "lock candidate", Err: err}
		}

		wasActive := iv.Active()
		moved := false
		if ch.InterviewDate != nil {
			at := ch.InterviewDate.UTC()
			moved = !at.Equal(iv.InterviewDate)
			iv.InterviewDate = at
		}
		if ch.InterviewTime != nil {
			iv.InterviewTime = strings.TrimSpace(*ch.InterviewTime)
		}
		if ch.DayOfWeek != nil {
			iv.DayOfWeek = strings.TrimSpace(*ch.DayOfWeek)
		}
		if ch.Status != nil {
			iv.Status = *ch.Status
		}
		if ch.MeetLink != nil {
			iv.MeetLink = strings.TrimSpace(*ch.MeetLink)
		}
		if ch.Notes != nil {
			iv.Notes = *ch.Notes
		}
		if ch.EmailSent != nil {
			iv.EmailSent = *ch.EmailSent
			if iv.EmailSent {
				sentAt := s.now().UTC()
				iv.EmailSentAt = &sentAt
			}
		}

		if iv.Active() && (moved || !wasActive) {
			if err := s.checkConflict(ctx, tx, iv.CandidateID, iv.InterviewDate, iv.ID); err != nil {
				return err
			}
		}
		if err := tx.SaveInterview(ctx, iv); err != nil {
			return err
		}
		out = iv
		return nil
	})
	if err != nil {
		return nil, s.outcome("reschedule", err, zerolog.Dict().Uint("interview_id", id))
	}
	return out, nil
}

// Cancel removes the interview.
func (s *Service) Cancel(ctx context.Context, id uint) error {
	err := s.store.DeleteInterview(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrInterviewNotFound
	}
	if err != nil {
		return s.outcome("cancel", err, zerolog.Dict().Uint("interview_id", id))
	}
	s.log.Info().Uint("interview_id", id).Msg("interview cancelled")
	return nil
}

func (s *Service) GetInterview(ctx context.Context, id uint) (*models.Interview, error) {
	iv, err := s.store.FindInterview(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrInterviewNotFound
	}
	if err != nil {
		return nil, s.outcome("get interview", err, zerolog.Dict().Uint("interview_id", id))
	}
	return iv, nil
}

// ListFilter narrows ListInterviews. Zero values do not filter.
type ListFilter struct {
	CandidateID uint
	Status      models.InterviewStatus
	From        *time.Time
	To          *time.Time
	Limit       int
}

func (s *Service) ListInterviews(ctx context.Context, f ListFilter) ([]models.Interview, error) {
	filter := database.InterviewFilter{
		CandidateID:   f.CandidateID,
		From:          f.From,
		To:            f.To,
		WithCandidate: true,
		Limit:         f.Limit,
	}
	if f.Status != "" {
		st, ok := models.ParseInterviewStatus(string(f.Status))
		if !ok {
			return nil, invalid("status", "unknown status "+string(f.Status))
		}
		filter.Statuses = []models.InterviewStatus{st}
	}
	out, err := s.store.ListInterviews(ctx, filter)
	if err != nil {
		return nil, s.outcome("list interviews", err, nil)
	}
	return out, nil
}

// Upcoming lists interviews at or after now, earliest first.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	now := s.now().UTC()
	out, err := s.store.ListInterviews(ctx, database.InterviewFilter{
		From:          &now,
		WithCandidate: true,
		Limit:         limit,
	})
	if err != nil {
		return nil, s.outcome("upcoming interviews", err, nil)
	}
	return out, nil
}

type Summary struct {
	Total       int64 `json:"total"`
	Upcoming    int64 `json:"upcoming"`
	Pending     int64 `json:"pending"`
	Confirmed   int64 `json:"confirmed"`
	Rescheduled int64 `json:"rescheduled"`
	Cancelled   int64 `json:"cancelled"`
	Completed   int64 `json:"completed"`
}

// Summary counts interviews per status in the optional [start, end] range.
// Upcoming counts interviews from now on that are still to take place.
func (s *Service) Summary(ctx context.Context, start, end *time.Time) (Summary, error) {
	counts, err := s.store.CountInterviewsByStatus(ctx, database.InterviewFilter{From: start, To: end})
	if err != nil {
		return Summary{}, s.outcome("summary", err, nil)
	}
	now := s.now().UTC()
	upcoming, err := s.store.CountInterviews(ctx, database.InterviewFilter{
		From:     &now,
		Statuses: []models.InterviewStatus{models.StatusPending, models.StatusConfirmed, models.StatusRescheduled},
	})
	if err != nil {
		return Summary{}, s.outcome("summary", err, nil)
	}

	sum := Summary{
		Upcoming:    upcoming,
		Pending:     counts[models.StatusPending],
		Confirmed:   counts[models.StatusConfirmed],
		Rescheduled: counts[models.StatusRescheduled],
		Cancelled:   counts[models.StatusCancelled],
		Completed:   counts[models.StatusCompleted],
	}
	for _, n := range counts {
		sum.Total += n
	}
	return sum, nil
}

// outcome passes domain errors through and normalizes storage failures.
// A uniqueness violation becomes ErrPersistenceConflict; anything else is a
// CollaboratorError.
func (s *Service) outcome(op string, err error, fields *zerolog.Event) error {
	if fields == nil {
		fields = zerolog.Dict()
	}
	switch {
	case errors.Is(err, database.ErrDuplicate):
		s.log.Warn().Err(err).Str("op", op).Dict("args", fields).
			Msg("uniqueness constraint rejected a booking that passed the conflict check")
		return ErrPersistenceConflict
	case IsExpected(err):
		return err
	}
	var ce *CollaboratorError
	if !errors.As(err, &ce) {
		ce = &CollaboratorError{Op: op, Err: err}
	}
	s.log.Error().Err(ce.Err).Str("op", ce.Op).Dict("args", fields).Msg("persistence failure")
	return ce
}
