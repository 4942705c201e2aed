package database

import (
	"context"
	"errors"
	"strings"

	"interview-scheduler/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Transaction(ctx context.Context, fn func(Session) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

// translate maps gorm errors onto the package sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Join(ErrNotFound, err)
	}
	return err
}

func (s *GormStore) FindCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	var c models.Candidate
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) LockCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	var c models.Candidate
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&c, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) FindCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	var c models.Candidate
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&c).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *GormStore) SearchCandidates(ctx context.Context, q CandidateQuery) ([]models.Candidate, int64, error) {
	tx := s.db.WithContext(ctx).Model(&models.Candidate{})
	like := func(v string) string { return "%" + strings.ToLower(strings.TrimSpace(v)) + "%" }

	if q.structured() {
		if q.FirstName != "" {
			tx = tx.Where("LOWER(first_name) LIKE ?", like(q.FirstName))
		}
		if q.LastName != "" {
			tx = tx.Where("LOWER(last_name) LIKE ?", like(q.LastName))
		}
		if q.Email != "" {
			tx = tx.Where("LOWER(email) LIKE ?", like(q.Email))
		}
		if q.Phone != "" {
			tx = tx.Where("phone LIKE ?", like(q.Phone))
		}
	} else if text := strings.TrimSpace(q.Query); text != "" {
		base := s.db.Session(&gorm.Session{NewDB: true})
		cond := base.Where("LOWER(first_name) LIKE ?", like(text)).
			Or("LOWER(last_name) LIKE ?", like(text)).
			Or("LOWER(email) LIKE ?", like(text))
		if parts := strings.Fields(text); len(parts) >= 2 {
			cond = cond.Or(base.Where("LOWER(first_name) LIKE ?", like(parts[0])).
				Where("LOWER(last_name) LIKE ?", like(parts[len(parts)-1])))
		}
		tx = tx.Where(cond)
	}
	if q.Country != "" {
		tx = tx.Where("country = ?", q.Country)
	}

	// Session makes the built conditions safe to reuse for both statements.
	tx = tx.Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}
	var out []models.Candidate
	if err := tx.Order("id").Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *GormStore) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *GormStore) SaveCandidate(ctx context.Context, c *models.Candidate) error {
	return translate(s.db.WithContext(ctx).Save(c).Error)
}

func (s *GormStore) DeleteCandidate(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Candidate{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) FindInterview(ctx context.Context, id uint) (*models.Interview, error) {
	var iv models.Interview
	if err := s.db.WithContext(ctx).Preload("Candidate").First(&iv, id).Error; err != nil {
		return nil, translate(err)
	}
	return &iv, nil
}

func (s *GormStore) interviewQuery(ctx context.Context, f InterviewFilter) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&models.Interview{})
	if f.CandidateID != 0 {
		tx = tx.Where("candidate_id = ?", f.CandidateID)
	}
	if f.From != nil {
		tx = tx.Where("interview_date >= ?", f.From.UTC())
	}
	if f.To != nil {
		tx = tx.Where("interview_date <= ?", f.To.UTC())
	}
	if f.Until != nil {
		tx = tx.Where("interview_date < ?", f.Until.UTC())
	}
	if f.At != nil {
		tx = tx.Where("interview_date = ?", f.At.UTC())
	}
	if f.ExcludeID != 0 {
		tx = tx.Where("id <> ?", f.ExcludeID)
	}
	if f.ActiveOnly {
		tx = tx.Where("status <> ?", models.StatusCancelled)
	}
	if len(f.Statuses) > 0 {
		tx = tx.Where("status IN ?", f.Statuses)
	}
	return tx
}

func (s *GormStore) ListInterviews(ctx context.Context, f InterviewFilter) ([]models.Interview, error) {
	tx := s.interviewQuery(ctx, f).Order("interview_date, id")
	if f.WithCandidate {
		tx = tx.Preload("Candidate")
	}
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	var out []models.Interview
	if err := tx.Find(&out).Error; err != nil {
		return nil, err
	}
	for i := range out {
		out[i].InterviewDate = out[i].InterviewDate.UTC()
	}
	return out, nil
}

func (s *GormStore) CountInterviewsByStatus(ctx context.Context, f InterviewFilter) (map[models.InterviewStatus]int64, error) {
	var rows []struct {
		Status models.InterviewStatus
		Count  int64
	}
	err := s.interviewQuery(ctx, f).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[models.InterviewStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func (s *GormStore) CountInterviews(ctx context.Context, f InterviewFilter) (int64, error) {
	var n int64
	err := s.interviewQuery(ctx, f).Count(&n).Error
	return n, err
}

func (s *GormStore) CreateInterview(ctx context.Context, iv *models.Interview) error {
	iv.InterviewDate = iv.InterviewDate.UTC()
	return translate(s.db.WithContext(ctx).Omit("Candidate").Create(iv).Error)
}

func (s *GormStore) SaveInterview(ctx context.Context, iv *models.Interview) error {
	iv.InterviewDate = iv.InterviewDate.UTC()
	return translate(s.db.WithContext(ctx).Omit("Candidate").Save(iv).Error)
}

func (s *GormStore) DeleteInterview(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Interview{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateDraft(ctx context.Context, d *models.Draft) error {
	return translate(s.db.WithContext(ctx).Create(d).Error)
}
