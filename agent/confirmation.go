package agent

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"interview-scheduler/models"
)

// ConfirmationStore keeps at most one pending confirmation per actor.
// Set replaces any existing record. Delete removes the record only while it
// still holds token and reports whether it did.
type ConfirmationStore interface {
	Get(ctx context.Context, actor string) (models.PendingConfirmation, bool, error)
	Set(ctx context.Context, p models.PendingConfirmation) error
	Delete(ctx context.Context, actor, token string) (bool, error)
}

// MemoryConfirmationStore is the single-instance ConfirmationStore.
type MemoryConfirmationStore struct {
	mu      sync.Mutex
	pending map[string]models.PendingConfirmation
}

func NewMemoryConfirmationStore() *MemoryConfirmationStore {
	return &MemoryConfirmationStore{pending: map[string]models.PendingConfirmation{}}
}

func (s *MemoryConfirmationStore) Get(_ context.Context, actor string) (models.PendingConfirmation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[actor]
	return p, ok, nil
}

func (s *MemoryConfirmationStore) Set(_ context.Context, p models.PendingConfirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[p.Actor] = p
	return nil
}

func (s *MemoryConfirmationStore) Delete(_ context.Context, actor, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[actor]
	if !ok || p.Token != token {
		return false, nil
	}
	delete(s.pending, actor)
	return true, nil
}

func (s *MemoryConfirmationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Gate binds approval of a sensitive tool call to a single-use token and to
// the exact arguments that were shown to the human.
type Gate struct {
	store ConfirmationStore
	ttl   time.Duration
	now   func() time.Time
	token func() string

	locks [lockStripes]sync.Mutex
}

// lockStripes bounds the per-actor locks; actors sharing a stripe merely
// serialize with each other.
const lockStripes = 64

type GateOption func(*Gate)

// WithTTL makes proposals older than ttl unapprovable. Zero disables expiry.
func WithTTL(ttl time.Duration) GateOption {
	return func(g *Gate) { g.ttl = ttl }
}

func WithGateClock(now func() time.Time) GateOption {
	return func(g *Gate) { g.now = now }
}

func NewGate(store ConfirmationStore, opts ...GateOption) *Gate {
	g := &Gate{
		store: store,
		now:   time.Now,
		token: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Gate) lock(actor string) func() {
	mu := &g.locks[stripe(actor)]
	mu.Lock()
	return mu.Unlock
}

func stripe(actor string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(actor))
	return h.Sum32() % lockStripes
}

// Propose records toolName(args) as the actor's pending action, replacing any
// earlier proposal, and returns the fresh approval token.
func (g *Gate) Propose(ctx context.Context, actor, toolName string, args json.RawMessage) (string, error) {
	defer g.lock(actor)()

	canonical := canonicalJSON(args)
	p := models.PendingConfirmation{
		Actor:       actor,
		Token:       g.token(),
		ToolName:    toolName,
		Fingerprint: fingerprintOf(canonical),
		Arguments:   datatypes.JSON(canonical),
		CreatedAt:   g.now().UTC(),
	}
	if err := g.store.Set(ctx, p); err != nil {
		return "", err
	}
	return p.Token, nil
}

// TryApprove consumes the actor's pending proposal when token, toolName and
// the fingerprint of args all match it. Any mismatch leaves the proposal in
// place and returns false.
func (g *Gate) TryApprove(ctx context.Context, actor, token, toolName string, args json.RawMessage) (bool, error) {
	if token == "" {
		return false, nil
	}
	defer g.lock(actor)()

	p, ok, err := g.store.Get(ctx, actor)
	if err != nil || !ok {
		return false, err
	}
	if subtle.ConstantTimeCompare([]byte(p.Token), []byte(token)) != 1 {
		return false, nil
	}
	if p.ToolName != toolName || p.Fingerprint != Fingerprint(args) {
		return false, nil
	}
	if g.ttl > 0 && g.now().Sub(p.CreatedAt) > g.ttl {
		return false, nil
	}
	return g.store.Delete(ctx, actor, token)
}

// Pending returns the actor's outstanding proposal, if any.
func (g *Gate) Pending(ctx context.Context, actor string) (models.PendingConfirmation, bool, error) {
	return g.store.Get(ctx, actor)
}

// Fingerprint hashes the canonical form of a JSON argument object, so key
// order and whitespace do not matter. Input that is not valid JSON, or whose
// objects repeat a key up to case, is hashed as trimmed raw bytes: tool
// handlers decode keys case-insensitively with the last one winning, so only
// the exact text pins down what will run.
func Fingerprint(args json.RawMessage) string {
	return fingerprintOf(canonicalJSON(args))
}

func fingerprintOf(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

// canonicalJSON re-encodes args with sorted object keys and no insignificant
// whitespace. Number literals are kept verbatim.
func canonicalJSON(args json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(args)
	if len(trimmed) == 0 {
		return []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return trimmed
	}
	if ambiguousKeys(trimmed) {
		return trimmed
	}
	out, err := json.Marshal(v)
	if err != nil {
		return trimmed
	}
	return out
}

// ambiguousKeys reports whether any object in data, at any depth, holds two
// keys that encoding/json would bind to the same struct field.
func ambiguousKeys(data []byte) bool {
	dec := json.NewDecoder(bytes.NewReader(data))
	dup, err := scanKeys(dec)
	return err != nil || dup
}

func scanKeys(dec *json.Decoder) (bool, error) {
	tok, err := dec.Token()
	if err != nil {
		return false, err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return false, nil
	}
	dup := false
	switch delim {
	case '{':
		seen := map[string]bool{}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return false, err
			}
			key, _ := keyTok.(string)
			folded := foldKey(key)
			if seen[folded] {
				dup = true
			}
			seen[folded] = true
			inner, err := scanKeys(dec)
			if err != nil {
				return false, err
			}
			dup = dup || inner
		}
	case '[':
		for dec.More() {
			inner, err := scanKeys(dec)
			if err != nil {
				return false, err
			}
			dup = dup || inner
		}
	}
	if _, err := dec.Token(); err != nil {
		return false, err
	}
	return dup, nil
}

// foldKey maps keys that encoding/json matches case-insensitively, including
// the Kelvin sign and long s, to one spelling.
func foldKey(key string) string {
	return strings.ToLower(strings.ToUpper(key))
}
