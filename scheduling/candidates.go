package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"interview-scheduler/database"
	"interview-scheduler/models"
	"interview-scheduler/utils"
)

const DefaultSearchLimit = 20

type CandidateInput struct {
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"max=100"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"max=50"`
	Country     string `json:"country" validate:"max=50"`
	Address     string `json:"address"`
	Citizenship string `json:"citizenship" validate:"max=100"`
	Notes       string `json:"notes"`
}

// CandidatePatch is a partial candidate update; nil fields are not applied.
type CandidatePatch struct {
	FirstName   *string `json:"first_name" validate:"omitempty,min=1,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=50"`
	Country     *string `json:"country" validate:"omitempty,max=50"`
	Address     *string `json:"address"`
	Citizenship *string `json:"citizenship" validate:"omitempty,max=100"`
	Notes       *string `json:"notes"`
}

func (s *Service) SearchCandidates(ctx context.Context, q database.CandidateQuery) ([]models.Candidate, int64, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	out, total, err := s.store.SearchCandidates(ctx, q)
	if err != nil {
		return nil, 0, s.outcome("search candidates", err, nil)
	}
	return out, total, nil
}

func (s *Service) GetCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	c, err := s.store.FindCandidate(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrCandidateNotFound
	}
	if err != nil {
		return nil, s.outcome("get candidate", err, zerolog.Dict().Uint("candidate_id", id))
	}
	return c, nil
}

// CandidateInterviews lists every interview of the candidate, earliest first.
func (s *Service) CandidateInterviews(ctx context.Context, id uint) ([]models.Interview, error) {
	out, err := s.store.ListInterviews(ctx, database.InterviewFilter{CandidateID: id})
	if err != nil {
		return nil, s.outcome("candidate interviews", err, zerolog.Dict().Uint("candidate_id", id))
	}
	return out, nil
}

func (s *Service) CreateCandidate(ctx context.Context, in CandidateInput) (*models.Candidate, error) {
	utils.NormalizeDTO(&in)
	in.Email = utils.NormalizeEmail(in.Email)
	if in.FirstName == "" {
		return nil, invalid("first_name", "is required")
	}
	if in.Email == "" {
		return nil, invalid("email", "is required")
	}
	if in.Country == "" {
		in.Country = "US"
	}

	c := &models.Candidate{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Phone:       in.Phone,
		Country:     in.Country,
		Address:     in.Address,
		Citizenship: in.Citizenship,
		Notes:       in.Notes,
	}
	err := s.store.Transaction(ctx, func(tx database.Session) error {
		if err := s.ensureEmailFree(ctx, tx, c.Email, 0); err != nil {
			return err
		}
		return tx.CreateCandidate(ctx, c)
	})
	if err != nil {
		return nil, s.candidateOutcome(ctx, "create candidate", c.Email, err)
	}
	s.log.Info().Uint("candidate_id", c.Id).Msg("candidate created")
	return c, nil
}

// UpdateCandidate applies the supplied fields and reports each change as
// "field: 'old' -> 'new'".
func (s *Service) UpdateCandidate(ctx context.Context, id uint, patch CandidatePatch) (*models.Candidate, []string, error) {
	utils.NormalizePtrDTO(&patch)
	if patch.Email != nil {
		email := utils.NormalizeEmail(*patch.Email)
		patch.Email = &email
	}
	updates := utils.UpdatesFromPtrDTO(&patch, nil)
	if len(updates) == 0 {
		return nil, nil, invalid("fields", "no fields to update")
	}
	fields := make([]string, 0, len(updates))
	for name := range updates {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var (
		out     *models.Candidate
		changes []string
	)
	err := s.store.Transaction(ctx, func(tx database.Session) error {
		c, err := tx.LockCandidate(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrCandidateNotFound
			}
			return err
		}
		for _, name := range fields {
			cur := candidateField(c, name)
			next, _ := updates[name].(string)
			if cur == nil || *cur == next {
				continue
			}
			if name == "email" {
				if err := s.ensureEmailFree(ctx, tx, next, c.Id); err != nil {
					return err
				}
			}
			changes = append(changes, fmt.Sprintf("%s: '%s' -> '%s'", name, *cur, next))
			*cur = next
		}
		if len(changes) == 0 {
			out = c
			return nil
		}
		if err := tx.SaveCandidate(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	if err != nil {
		email := ""
		if patch.Email != nil {
			email = *patch.Email
		}
		return nil, nil, s.candidateOutcome(ctx, "update candidate", email, err)
	}
	if len(changes) > 0 {
		s.log.Info().Uint("candidate_id", id).Strs("changes", changes).Msg("candidate updated")
	}
	return out, changes, nil
}

// DeleteCandidate removes the candidate together with all of their interviews.
func (s *Service) DeleteCandidate(ctx context.Context, id uint) error {
	err := s.store.DeleteCandidate(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrCandidateNotFound
	}
	if err != nil {
		return s.outcome("delete candidate", err, zerolog.Dict().Uint("candidate_id", id))
	}
	s.log.Info().Uint("candidate_id", id).Msg("candidate deleted")
	return nil
}

func (s *Service) ensureEmailFree(ctx context.Context, tx database.Session, email string, self uint) error {
	existing, err := tx.FindCandidateByEmail(ctx, email)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.Id != self:
		return &CandidateExistsError{ID: existing.Id, Email: email}
	}
	return nil
}

// candidateOutcome turns a late unique-email violation into CandidateExistsError.
func (s *Service) candidateOutcome(ctx context.Context, op, email string, err error) error {
	if errors.Is(err, database.ErrDuplicate) {
		exists := &CandidateExistsError{Email: email}
		if c, ferr := s.store.FindCandidateByEmail(ctx, email); ferr == nil {
			exists.ID = c.Id
		}
		return exists
	}
	return s.outcome(op, err, zerolog.Dict().Str("email", email))
}

func candidateField(c *models.Candidate, name string) *string {
	switch strings.ToLower(name) {
	case "first_name":
		return &c.FirstName
	case "last_name":
		return &c.LastName
	case "email":
		return &c.Email
	case "phone":
		return &c.Phone
	case "country":
		return &c.Country
	case "address":
		return &c.Address
	case "citizenship":
		return &c.Citizenship
	case "notes":
		return &c.Notes
	}
	return nil
}
