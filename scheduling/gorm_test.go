package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"interview-scheduler/database"
	"interview-scheduler/models"
)

func newGormService(t *testing.T) (*Service, *database.GormStore) {
	t.Helper()
	db, err := database.Open("sqlite", ":memory:?_pragma=foreign_keys(1)", zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	store := database.NewStore(db)
	return NewService(store, WithClock(func() time.Time { return fixedNow })), store
}

// staleSession hides existing interviews from the conflict check, leaving the
// unique index as the only guard.
type staleSession struct {
	database.Session
}

func (staleSession) ListInterviews(context.Context, database.InterviewFilter) ([]models.Interview, error) {
	return nil, nil
}

func (staleSession) CountInterviews(context.Context, database.InterviewFilter) (int64, error) {
	return 0, nil
}

type staleGormStore struct {
	*database.GormStore
}

func (s staleGormStore) Transaction(ctx context.Context, fn func(database.Session) error) error {
	return s.GormStore.Transaction(ctx, func(tx database.Session) error { return fn(staleSession{tx}) })
}

func TestGormUniqueIndexBecomesPersistenceConflict(t *testing.T) {
	base, store := newGormService(t)
	c := seedCandidate(t, base, "ada@example.com")
	s := NewService(staleGormStore{store})
	ctx := context.Background()
	req := ScheduleRequest{CandidateID: c.Id, InterviewDate: at(14, 10, 0)}

	if _, err := s.Schedule(ctx, req); err != nil {
		t.Fatalf("first Schedule: %v", err)
	}
	_, err := s.Schedule(ctx, req)
	if !errors.Is(err, ErrPersistenceConflict) {
		t.Fatalf("err = %v, want ErrPersistenceConflict", err)
	}
	if n, _ := store.CountInterviews(ctx, database.InterviewFilter{CandidateID: c.Id}); n != 1 {
		t.Errorf("interviews = %d, want 1", n)
	}
}

func TestGormScheduleFlow(t *testing.T) {
	s, _ := newGormService(t)
	c := seedCandidate(t, s, "ada@example.com")
	ctx := context.Background()

	iv, err := s.Schedule(ctx, ScheduleRequest{CandidateID: c.Id, InterviewDate: at(14, 9, 0)})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	var conflict *ConflictError
	if _, err := s.Schedule(ctx, ScheduleRequest{CandidateID: c.Id, InterviewDate: at(14, 9, 30)}); !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}

	slots, err := s.FindSlots(ctx, at(14, 0, 0), at(14, 0, 0), []string{"09:00", "11:00"}, 0)
	if err != nil {
		t.Fatalf("FindSlots: %v", err)
	}
	if len(slots) != 1 || !slots[0].Equal(at(14, 11, 0)) {
		t.Errorf("slots = %v, want [11:00]", slots)
	}

	moved := at(14, 11, 0)
	if _, err := s.Reschedule(ctx, iv.ID, InterviewChanges{InterviewDate: &moved}); err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	got, err := s.GetInterview(ctx, iv.ID)
	if err != nil || !got.InterviewDate.Equal(moved) {
		t.Fatalf("GetInterview = %+v, %v", got, err)
	}

	sum, err := s.Summary(ctx, nil, nil)
	if err != nil || sum.Total != 1 || sum.Upcoming != 1 {
		t.Errorf("Summary = %+v, %v", sum, err)
	}

	if _, err := s.CreateCandidate(ctx, CandidateInput{FirstName: "Ada", Email: "ADA@example.com"}); err == nil {
		t.Error("duplicate email accepted")
	} else {
		var exists *CandidateExistsError
		if !errors.As(err, &exists) || exists.ID != c.Id {
			t.Errorf("err = %v, want CandidateExistsError for %d", err, c.Id)
		}
	}
}
