package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"interview-scheduler/models"
)

// openSQLite returns a migrated in-memory database. Open pins SQLite to one
// connection, which keeps the database alive for the whole test.
func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open("sqlite", ":memory:?_pragma=foreign_keys(1)", zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedGormCandidate(t *testing.T, s *GormStore, first, last, email string) *models.Candidate {
	t.Helper()
	c := &models.Candidate{FirstName: first, LastName: last, Email: email}
	if err := s.CreateCandidate(context.Background(), c); err != nil {
		t.Fatalf("CreateCandidate: %v", err)
	}
	return c
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "dsn", zerolog.Nop()); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}

func TestAutoMigrateIsIdempotent(t *testing.T) {
	db := openSQLite(t)
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("second AutoMigrate: %v", err)
	}
	if !db.Migrator().HasIndex(&models.Interview{}, UniqueInterviewIndex) {
		t.Errorf("index %s missing", UniqueInterviewIndex)
	}
}

func TestGormStore_DuplicateEmailIsErrDuplicate(t *testing.T) {
	s := NewStore(openSQLite(t))
	seedGormCandidate(t, s, "Ada", "Lovelace", "ada@example.com")

	err := s.CreateCandidate(context.Background(), &models.Candidate{FirstName: "A", Email: "ada@example.com"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("translated error lost the gorm cause: %v", err)
	}
}

func TestGormStore_PartialUniqueIndex(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openSQLite(t))
	c := seedGormCandidate(t, s, "Ada", "Lovelace", "ada@example.com")
	at := time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC)

	first := &models.Interview{CandidateID: c.Id, InterviewDate: at, Status: models.StatusPending}
	if err := s.CreateInterview(ctx, first); err != nil {
		t.Fatalf("first CreateInterview: %v", err)
	}
	err := s.CreateInterview(ctx, &models.Interview{CandidateID: c.Id, InterviewDate: at, Status: models.StatusPending})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for the same slot, got %v", err)
	}

	first.Status = models.StatusCancelled
	if err := s.SaveInterview(ctx, first); err != nil {
		t.Fatalf("SaveInterview: %v", err)
	}
	if err := s.CreateInterview(ctx, &models.Interview{CandidateID: c.Id, InterviewDate: at, Status: models.StatusPending}); err != nil {
		t.Fatalf("rebooking a cancelled slot: %v", err)
	}
}

func TestGormStore_TransactionLocksAndRollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openSQLite(t))
	c := seedGormCandidate(t, s, "Ada", "Lovelace", "ada@example.com")
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx Session) error {
		locked, err := tx.LockCandidate(ctx, c.Id)
		if err != nil {
			return err
		}
		if locked.Email != "ada@example.com" {
			t.Errorf("locked candidate = %+v", locked)
		}
		if _, err := tx.LockCandidate(ctx, 999); !errors.Is(err, ErrNotFound) {
			t.Errorf("LockCandidate(999) = %v, want ErrNotFound", err)
		}
		iv := &models.Interview{CandidateID: c.Id, InterviewDate: time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC), Status: models.StatusPending}
		if err := tx.CreateInterview(ctx, iv); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if n, _ := s.CountInterviews(ctx, InterviewFilter{}); n != 0 {
		t.Errorf("interviews after rollback = %d, want 0", n)
	}
}

func TestGormStore_DeleteCandidateCascades(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openSQLite(t))
	c := seedGormCandidate(t, s, "Ada", "Lovelace", "ada@example.com")
	other := seedGormCandidate(t, s, "Alan", "Turing", "alan@example.com")
	at := time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC)
	for _, id := range []uint{c.Id, other.Id} {
		if err := s.CreateInterview(ctx, &models.Interview{CandidateID: id, InterviewDate: at, Status: models.StatusPending}); err != nil {
			t.Fatalf("CreateInterview: %v", err)
		}
	}

	if err := s.DeleteCandidate(ctx, c.Id); err != nil {
		t.Fatalf("DeleteCandidate: %v", err)
	}
	left, err := s.ListInterviews(ctx, InterviewFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].CandidateID != other.Id {
		t.Fatalf("expected only the other candidate's interview to remain, got %+v", left)
	}
	if err := s.DeleteCandidate(ctx, c.Id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestGormStore_InterviewQueries(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openSQLite(t))
	c := seedGormCandidate(t, s, "Ada", "Lovelace", "ada@example.com")
	base := time.Date(2025, 11, 14, 9, 0, 0, 0, time.UTC)
	for i, st := range []models.InterviewStatus{models.StatusPending, models.StatusCancelled, models.StatusConfirmed} {
		iv := &models.Interview{CandidateID: c.Id, InterviewDate: base.Add(time.Duration(i) * time.Hour), Status: st}
		if err := s.CreateInterview(ctx, iv); err != nil {
			t.Fatalf("CreateInterview: %v", err)
		}
	}

	from, to := base, base.Add(time.Hour)
	tests := []struct {
		name string
		f    InterviewFilter
		want int
	}{
		{"all", InterviewFilter{}, 3},
		{"range inclusive", InterviewFilter{From: &from, To: &to}, 2},
		{"active only", InterviewFilter{ActiveOnly: true}, 2},
		{"exact", InterviewFilter{At: &base}, 1},
		{"statuses", InterviewFilter{Statuses: []models.InterviewStatus{models.StatusConfirmed}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListInterviews(ctx, tt.f)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("ListInterviews = %d rows, want %d", len(got), tt.want)
			}
			n, err := s.CountInterviews(ctx, tt.f)
			if err != nil || n != int64(tt.want) {
				t.Errorf("CountInterviews = %d, %v; want %d", n, err, tt.want)
			}
		})
	}

	counts, err := s.CountInterviewsByStatus(ctx, InterviewFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if counts[models.StatusPending] != 1 || counts[models.StatusCancelled] != 1 || counts[models.StatusConfirmed] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestGormStore_SearchCandidates(t *testing.T) {
	ctx := context.Background()
	s := NewStore(openSQLite(t))
	seedGormCandidate(t, s, "Ada", "Lovelace", "ada@example.com")
	seedGormCandidate(t, s, "Alan", "Turing", "alan@example.com")

	tests := []struct {
		name string
		q    CandidateQuery
		want int
	}{
		{"free text", CandidateQuery{Query: "LOVE"}, 1},
		{"full name", CandidateQuery{Query: "alan turing"}, 1},
		{"structured", CandidateQuery{FirstName: "a"}, 2},
		{"country default", CandidateQuery{Country: "US"}, 2},
		{"limited", CandidateQuery{Limit: 1}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, total, err := s.SearchCandidates(ctx, tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("rows = %d, want %d (total %d)", len(got), tt.want, total)
			}
		})
	}
}

func TestConfirmationStore_UpsertAndCompareAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewConfirmationStore(openSQLite(t))
	now := time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)

	if _, ok, err := store.Get(ctx, "alice"); err != nil || ok {
		t.Fatalf("Get on empty store = %v, %v", ok, err)
	}
	first := models.PendingConfirmation{Actor: "alice", Token: "t1", ToolName: "delete_interview", Fingerprint: "f1", Arguments: []byte(`{"interview_id":1}`), CreatedAt: now}
	if err := store.Set(ctx, first); err != nil {
		t.Fatalf("Set: %v", err)
	}
	second := first
	second.Token, second.ToolName, second.Fingerprint = "t2", "schedule_interview", "f2"
	second.Arguments = []byte(`{"candidate_id":3}`)
	if err := store.Set(ctx, second); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	got, ok, err := store.Get(ctx, "alice")
	if err != nil || !ok {
		t.Fatalf("Get = %v, %v", ok, err)
	}
	if got.Token != "t2" || got.ToolName != "schedule_interview" || got.Fingerprint != "f2" || string(got.Arguments) != `{"candidate_id":3}` {
		t.Errorf("record not replaced: %+v", got)
	}

	if ok, err := store.Delete(ctx, "alice", "t1"); err != nil || ok {
		t.Errorf("Delete with stale token = %v, %v; want false", ok, err)
	}
	if ok, err := store.Delete(ctx, "alice", "t2"); err != nil || !ok {
		t.Errorf("Delete with current token = %v, %v; want true", ok, err)
	}
	if ok, _ := store.Delete(ctx, "alice", "t2"); ok {
		t.Error("token consumed twice")
	}
	if _, ok, _ := store.Get(ctx, "alice"); ok {
		t.Error("record still present after Delete")
	}
}
