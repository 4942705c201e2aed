package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"interview-scheduler/models"
)

// MemoryStore is an in-process Store with the same contract as GormStore:
// email uniqueness, the active (candidate, timestamp) uniqueness rule, and
// cascading candidate deletes. Transactions are serialized; each one journals
// its own writes and a rollback undoes only those, so writes made outside the
// transaction meanwhile survive. Every Session method call is counted.
type MemoryStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	candidates map[uint]models.Candidate
	interviews map[uint]models.Interview
	drafts     map[uint]models.Draft
	nextID     uint

	calls    map[string]int
	failures map[string]error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		candidates: map[uint]models.Candidate{},
		interviews: map[uint]models.Interview{},
		drafts:     map[uint]models.Draft{},
		calls:      map[string]int{},
		failures:   map[string]error{},
	}
}

// Calls returns how many times the named Session method was invoked.
func (m *MemoryStore) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// FailOn makes the named method return err until cleared with a nil err.
func (m *MemoryStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

// enter locks the data and records the call. The returned error is an
// injected failure, if any.
func (m *MemoryStore) enter(method string) error {
	m.mu.Lock()
	m.calls[method]++
	return m.failures[method]
}

func (m *MemoryStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) Transaction(ctx context.Context, fn func(Session) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memTx{MemoryStore: m}
	if err := fn(tx); err != nil {
		m.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		m.mu.Unlock()
		return err
	}
	return nil
}

// memTx is the Session inside a MemoryStore transaction. Reads go straight to
// the store; writes also append their inverse to undo.
type memTx struct {
	*MemoryStore
	undo []func()
}

func (t *memTx) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	return t.createCandidate(c, &t.undo)
}

func (t *memTx) SaveCandidate(ctx context.Context, c *models.Candidate) error {
	return t.saveCandidate(c, &t.undo)
}

func (t *memTx) DeleteCandidate(ctx context.Context, id uint) error {
	return t.deleteCandidate(id, &t.undo)
}

func (t *memTx) CreateInterview(ctx context.Context, iv *models.Interview) error {
	return t.createInterview(iv, &t.undo)
}

func (t *memTx) SaveInterview(ctx context.Context, iv *models.Interview) error {
	return t.saveInterview(iv, &t.undo)
}

func (t *memTx) DeleteInterview(ctx context.Context, id uint) error {
	return t.deleteInterview(id, &t.undo)
}

func (t *memTx) CreateDraft(ctx context.Context, d *models.Draft) error {
	return t.createDraft(d, &t.undo)
}

// record journals fn when the write happens inside a transaction. Callers
// hold m.mu.
func record(undo *[]func(), fn func()) {
	if undo != nil {
		*undo = append(*undo, fn)
	}
}

func (m *MemoryStore) FindCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	err := m.enter("FindCandidate")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// LockCandidate relies on Transaction already serializing units of work.
func (m *MemoryStore) LockCandidate(ctx context.Context, id uint) (*models.Candidate, error) {
	err := m.enter("LockCandidate")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) FindCandidateByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	err := m.enter("FindCandidateByEmail")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	for _, c := range m.candidates {
		if strings.EqualFold(c.Email, email) {
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) SearchCandidates(ctx context.Context, q CandidateQuery) ([]models.Candidate, int64, error) {
	err := m.enter("SearchCandidates")
	defer m.mu.Unlock()
	if err != nil {
		return nil, 0, err
	}

	contains := func(field, v string) bool {
		return strings.Contains(strings.ToLower(field), strings.ToLower(strings.TrimSpace(v)))
	}
	var out []models.Candidate
	for _, c := range m.candidates {
		if q.structured() {
			if q.FirstName != "" && !contains(c.FirstName, q.FirstName) ||
				q.LastName != "" && !contains(c.LastName, q.LastName) ||
				q.Email != "" && !contains(c.Email, q.Email) ||
				q.Phone != "" && !contains(c.Phone, q.Phone) {
				continue
			}
		} else if text := strings.TrimSpace(q.Query); text != "" {
			match := contains(c.FirstName, text) || contains(c.LastName, text) || contains(c.Email, text)
			if parts := strings.Fields(text); !match && len(parts) >= 2 {
				match = contains(c.FirstName, parts[0]) && contains(c.LastName, parts[len(parts)-1])
			}
			if !match {
				continue
			}
		}
		if q.Country != "" && c.Country != q.Country {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })

	total := int64(len(out))
	if q.Limit > 0 {
		start := min(q.Offset, len(out))
		end := min(start+q.Limit, len(out))
		out = out[start:end]
	}
	return out, total, nil
}

func (m *MemoryStore) emailTaken(email string, except uint) bool {
	for id, c := range m.candidates {
		if id != except && strings.EqualFold(c.Email, email) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateCandidate(ctx context.Context, c *models.Candidate) error {
	return m.createCandidate(c, nil)
}

func (m *MemoryStore) createCandidate(c *models.Candidate, undo *[]func()) error {
	err := m.enter("CreateCandidate")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	if m.emailTaken(c.Email, 0) {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	c.Id = m.id()
	if c.Country == "" {
		c.Country = "US"
	}
	c.CreatedAt, c.UpdatedAt = now, now
	m.candidates[c.Id] = *c
	id := c.Id
	record(undo, func() { delete(m.candidates, id) })
	return nil
}

func (m *MemoryStore) SaveCandidate(ctx context.Context, c *models.Candidate) error {
	return m.saveCandidate(c, nil)
}

func (m *MemoryStore) saveCandidate(c *models.Candidate, undo *[]func()) error {
	err := m.enter("SaveCandidate")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	prev, ok := m.candidates[c.Id]
	if !ok {
		return ErrNotFound
	}
	if m.emailTaken(c.Email, c.Id) {
		return ErrDuplicate
	}
	c.UpdatedAt = time.Now().UTC()
	m.candidates[c.Id] = *c
	record(undo, func() { m.candidates[prev.Id] = prev })
	return nil
}

func (m *MemoryStore) DeleteCandidate(ctx context.Context, id uint) error {
	return m.deleteCandidate(id, nil)
}

func (m *MemoryStore) deleteCandidate(id uint, undo *[]func()) error {
	err := m.enter("DeleteCandidate")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	prev, ok := m.candidates[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.candidates, id)
	var cascaded []models.Interview
	for ivID, iv := range m.interviews {
		if iv.CandidateID == id {
			cascaded = append(cascaded, iv)
			delete(m.interviews, ivID)
		}
	}
	record(undo, func() {
		m.candidates[id] = prev
		for _, iv := range cascaded {
			m.interviews[iv.ID] = iv
		}
	})
	return nil
}

func (m *MemoryStore) withCandidate(iv models.Interview) models.Interview {
	if c, ok := m.candidates[iv.CandidateID]; ok {
		iv.Candidate = &c
	}
	return iv
}

func (m *MemoryStore) FindInterview(ctx context.Context, id uint) (*models.Interview, error) {
	err := m.enter("FindInterview")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	iv, ok := m.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	iv = m.withCandidate(iv)
	return &iv, nil
}

func matches(iv models.Interview, f InterviewFilter) bool {
	at := iv.InterviewDate
	switch {
	case f.CandidateID != 0 && iv.CandidateID != f.CandidateID,
		f.From != nil && at.Before(*f.From),
		f.To != nil && at.After(*f.To),
		f.Until != nil && !at.Before(*f.Until),
		f.At != nil && !at.Equal(*f.At),
		f.ExcludeID != 0 && iv.ID == f.ExcludeID,
		f.ActiveOnly && !iv.Active():
		return false
	}
	if len(f.Statuses) > 0 {
		for _, st := range f.Statuses {
			if iv.Status == st {
				return true
			}
		}
		return false
	}
	return true
}

func (m *MemoryStore) filter(f InterviewFilter) []models.Interview {
	var out []models.Interview
	for _, iv := range m.interviews {
		if matches(iv, f) {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].InterviewDate.Equal(out[j].InterviewDate) {
			return out[i].InterviewDate.Before(out[j].InterviewDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *MemoryStore) ListInterviews(ctx context.Context, f InterviewFilter) ([]models.Interview, error) {
	err := m.enter("ListInterviews")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := m.filter(f)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	if f.WithCandidate {
		for i := range out {
			out[i] = m.withCandidate(out[i])
		}
	}
	return out, nil
}

func (m *MemoryStore) CountInterviewsByStatus(ctx context.Context, f InterviewFilter) (map[models.InterviewStatus]int64, error) {
	err := m.enter("CountInterviewsByStatus")
	defer m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	out := map[models.InterviewStatus]int64{}
	for _, iv := range m.filter(f) {
		out[iv.Status]++
	}
	return out, nil
}

func (m *MemoryStore) CountInterviews(ctx context.Context, f InterviewFilter) (int64, error) {
	err := m.enter("CountInterviews")
	defer m.mu.Unlock()
	if err != nil {
		return 0, err
	}
	return int64(len(m.filter(f))), nil
}

// slotTaken mirrors the partial unique index on (candidate_id, interview_date).
func (m *MemoryStore) slotTaken(iv *models.Interview) bool {
	if !iv.Active() {
		return false
	}
	for id, other := range m.interviews {
		if id != iv.ID && other.Active() && other.CandidateID == iv.CandidateID &&
			other.InterviewDate.Equal(iv.InterviewDate) {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateInterview(ctx context.Context, iv *models.Interview) error {
	return m.createInterview(iv, nil)
}

func (m *MemoryStore) createInterview(iv *models.Interview, undo *[]func()) error {
	err := m.enter("CreateInterview")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	if _, ok := m.candidates[iv.CandidateID]; !ok {
		return ErrNotFound
	}
	iv.InterviewDate = iv.InterviewDate.UTC()
	if iv.Status == "" {
		iv.Status = models.StatusPending
	}
	if m.slotTaken(iv) {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	iv.ID = m.id()
	iv.CreatedAt, iv.UpdatedAt = now, now
	stored := *iv
	stored.Candidate = nil
	m.interviews[iv.ID] = stored
	record(undo, func() { delete(m.interviews, stored.ID) })
	return nil
}

func (m *MemoryStore) SaveInterview(ctx context.Context, iv *models.Interview) error {
	return m.saveInterview(iv, nil)
}

func (m *MemoryStore) saveInterview(iv *models.Interview, undo *[]func()) error {
	err := m.enter("SaveInterview")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	prev, ok := m.interviews[iv.ID]
	if !ok {
		return ErrNotFound
	}
	iv.InterviewDate = iv.InterviewDate.UTC()
	if m.slotTaken(iv) {
		return ErrDuplicate
	}
	iv.UpdatedAt = time.Now().UTC()
	stored := *iv
	stored.Candidate = nil
	m.interviews[iv.ID] = stored
	record(undo, func() { m.interviews[prev.ID] = prev })
	return nil
}

func (m *MemoryStore) DeleteInterview(ctx context.Context, id uint) error {
	return m.deleteInterview(id, nil)
}

func (m *MemoryStore) deleteInterview(id uint, undo *[]func()) error {
	err := m.enter("DeleteInterview")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	prev, ok := m.interviews[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.interviews, id)
	record(undo, func() { m.interviews[id] = prev })
	return nil
}

func (m *MemoryStore) CreateDraft(ctx context.Context, d *models.Draft) error {
	return m.createDraft(d, nil)
}

func (m *MemoryStore) createDraft(d *models.Draft, undo *[]func()) error {
	err := m.enter("CreateDraft")
	defer m.mu.Unlock()
	if err != nil {
		return err
	}
	d.ID = m.id()
	d.UpdatedAt = time.Now().UTC()
	m.drafts[d.ID] = *d
	id := d.ID
	record(undo, func() { delete(m.drafts, id) })
	return nil
}

// Drafts returns every stored draft ordered by id.
func (m *MemoryStore) Drafts() []models.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Draft, 0, len(m.drafts))
	for _, d := range m.drafts {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
