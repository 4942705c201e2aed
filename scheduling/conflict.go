package scheduling

import (
	"context"
	"time"

	"interview-scheduler/database"
)

const reasonLayout = "2006-01-02 15:04"

// CheckConflict reports whether booking candidateID at `at` would collide with
// one of the candidate's active interviews. excludeID skips the interview
// being moved. Only a store failure is returned as an error.
func (s *Service) CheckConflict(ctx context.Context, candidateID uint, at time.Time, excludeID uint) (bool, []string, error) {
	if candidateID == 0 {
		return false, nil, invalid("candidate_id", "is required")
	}
	if at.IsZero() {
		return false, nil, invalid("interview_date", "is required")
	}
	reasons, err := s.conflictReasons(ctx, s.store, candidateID, at.UTC(), excludeID)
	if err != nil {
		return false, nil, s.outcome("check conflict", err, nil)
	}
	return len(reasons) > 0, reasons, nil
}

// checkConflict is the in-transaction form used before a write.
func (s *Service) checkConflict(ctx context.Context, tx database.Session, candidateID uint, at time.Time, excludeID uint) error {
	reasons, err := s.conflictReasons(ctx, tx, candidateID, at, excludeID)
	if err != nil {
		return &CollaboratorError{Op: "check conflict", Err: err}
	}
	if len(reasons) > 0 {
		return &ConflictError{Reasons: reasons}
	}
	return nil
}

// conflictReasons runs both checks and collects every reason: one per active
// interview within the window (inclusive), plus a dedicated reason for an
// exact-timestamp duplicate.
func (s *Service) conflictReasons(ctx context.Context, sess database.Session, candidateID uint, at time.Time, excludeID uint) ([]string, error) {
	from, to := at.Add(-s.window), at.Add(s.window)
	near, err := sess.ListInterviews(ctx, database.InterviewFilter{
		CandidateID: candidateID,
		From:        &from,
		To:          &to,
		ExcludeID:   excludeID,
		ActiveOnly:  true,
	})
	if err != nil {
		return nil, err
	}
	var reasons []string
	for _, iv := range near {
		reasons = append(reasons, "Candidate has another interview at "+iv.InterviewDate.UTC().Format(reasonLayout))
	}

	dup, err := sess.CountInterviews(ctx, database.InterviewFilter{
		CandidateID: candidateID,
		At:          &at,
		ExcludeID:   excludeID,
		ActiveOnly:  true,
	})
	if err != nil {
		return nil, err
	}
	if dup > 0 {
		reasons = append(reasons, "Candidate already has an interview scheduled at exactly "+at.Format(reasonLayout))
	}
	return reasons, nil
}
