package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"interview-scheduler/database"
	"interview-scheduler/scheduling"
)

func noop(context.Context, Invocation, json.RawMessage) (any, error) { return nil, nil }

func TestToolsetValidatesCatalog(t *testing.T) {
	full := map[ToolName]ToolHandler{}
	for _, d := range catalog {
		full[ToolName(d.Function.Name)] = noop
	}
	if _, err := newToolset(catalog, full); err != nil {
		t.Fatalf("complete catalog rejected: %v", err)
	}

	missing := map[ToolName]ToolHandler{}
	for name, h := range full {
		if name != ToolDraftEmail {
			missing[name] = h
		}
	}
	if _, err := newToolset(catalog, missing); err == nil || !strings.Contains(err.Error(), "draft_email") {
		t.Errorf("missing handler err = %v", err)
	}

	extra := map[ToolName]ToolHandler{"send_email": noop}
	for name, h := range full {
		extra[name] = h
	}
	if _, err := newToolset(catalog, extra); err == nil || !strings.Contains(err.Error(), "send_email") {
		t.Errorf("extra handler err = %v", err)
	}

	if _, err := newToolset(append(catalog[:0:0], catalog[0], catalog[0]), full); err == nil {
		t.Error("duplicate definition accepted")
	}
}

func TestSensitiveSet(t *testing.T) {
	for _, name := range []string{"add_candidate", "update_candidate", "schedule_interview", "delete_interview"} {
		if !IsSensitive(name) {
			t.Errorf("%s should be sensitive", name)
		}
	}
	for _, name := range []string{"search_candidates", "get_candidate_details", "check_availability", "get_schedule", "draft_email", "unknown"} {
		if IsSensitive(name) {
			t.Errorf("%s should not be sensitive", name)
		}
	}
}

func newTools(t *testing.T) (*Toolset, *scheduling.Service, *database.MemoryStore) {
	t.Helper()
	store := database.NewMemoryStore()
	svc := scheduling.NewService(store, scheduling.WithClock(func() time.Time { return testNow }))
	ts, err := NewToolset(svc, store)
	if err != nil {
		t.Fatal(err)
	}
	return ts, svc, store
}

func run(t *testing.T, ts *Toolset, name, args string) any {
	t.Helper()
	h, ok := ts.Lookup(name)
	if !ok {
		t.Fatalf("tool %s not found", name)
	}
	out, err := h(context.Background(), Invocation{Actor: "alice@example.com"}, json.RawMessage(args))
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return out
}

func TestToolArgumentErrors(t *testing.T) {
	ts, _, _ := newTools(t)
	tests := []struct {
		tool, args, want string
	}{
		{"get_candidate_details", `{}`, "CandidateID"},
		{"get_candidate_details", `{"candidate_id":"seven"}`, "invalid arguments"},
		{"schedule_interview", `{"candidate_id":1}`, "Missing interview_date"},
		{"schedule_interview", `{"candidate_id":1,"interview_date":"next friday"}`, "Invalid interview_date"},
		{"add_candidate", `{"first_name":"A","last_name":"B","email":"nope"}`, "Email (email)"},
		{"check_availability", `{"start_date":"2025-11-14","end_date":"soon"}`, "invalid date"},
		{"draft_email", `not json`, "invalid arguments"},
		{"delete_interview", `{"interview_id":1,"Interview_ID":2}`, "repeated"},
	}
	for _, tt := range tests {
		t.Run(tt.tool+" "+tt.args, func(t *testing.T) {
			out, ok := run(t, ts, tt.tool, tt.args).(toolFailure)
			if !ok || !strings.Contains(out.Error, tt.want) {
				t.Errorf("output = %#v, want error containing %q", out, tt.want)
			}
		})
	}
}

func TestCandidateTools(t *testing.T) {
	ts, svc, _ := newTools(t)

	added, ok := run(t, ts, "add_candidate", `{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com"}`).(map[string]any)
	if !ok || added["success"] != true {
		t.Fatalf("add_candidate = %#v", added)
	}
	id := added["id"].(uint)

	dup, ok := run(t, ts, "add_candidate", `{"first_name":"Ada","last_name":"L","email":"ADA@example.com"}`).(toolFailure)
	if !ok || dup.Error != "Candidate already exists" || dup.ID != id {
		t.Errorf("duplicate add = %#v", dup)
	}

	updated := run(t, ts, "update_candidate", `{"candidate_id":1,"phone":"555","notes":"prefers mornings"}`).(map[string]any)
	if msg, _ := updated["message"].(string); !strings.Contains(msg, "phone: '' -> '555'") || !strings.Contains(msg, "notes:") {
		t.Errorf("update message = %q", msg)
	}
	same := run(t, ts, "update_candidate", `{"candidate_id":1,"phone":"555"}`).(map[string]any)
	if same["message"] != "No changes made." {
		t.Errorf("no-op update = %#v", same)
	}

	c, _ := svc.GetCandidate(context.Background(), id)
	if c.Phone != "555" || c.Notes != "prefers mornings" {
		t.Errorf("stored candidate = %+v", c)
	}

	found := run(t, ts, "search_candidates", `{"first_name":"ada"}`)
	b, _ := json.Marshal(found)
	if !strings.Contains(string(b), `"full_name":"Ada Lovelace"`) || strings.Contains(string(b), "notes") {
		t.Errorf("search output = %s", b)
	}
}

func TestScheduleAndAvailabilityTools(t *testing.T) {
	ts, svc, _ := newTools(t)
	if _, err := svc.CreateCandidate(context.Background(), scheduling.CandidateInput{FirstName: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatal(err)
	}

	booked := run(t, ts, "schedule_interview", `{"candidate_id":1,"start_time":"2025-11-14T09:00:00"}`).(map[string]any)
	if booked["success"] != true || booked["date"] != "2025-11-14T09:00:00" {
		t.Fatalf("schedule_interview = %#v", booked)
	}

	slots := run(t, ts, "check_availability", `{"start_date":"2025-11-14","end_date":"2025-11-14","preferred_times":["09:00","09:30"]}`).([]string)
	if len(slots) != 1 || slots[0] != "2025-11-14T09:30:00" {
		t.Errorf("slots = %v", slots)
	}

	missing := run(t, ts, "schedule_interview", `{"candidate_id":99,"interview_date":"2025-11-14T12:00:00"}`).(toolFailure)
	if missing.Error != "Candidate not found" {
		t.Errorf("unknown candidate = %#v", missing)
	}

	details := run(t, ts, "get_candidate_details", `{"candidate_id":1}`).(map[string]any)
	b, _ := json.Marshal(details)
	if !strings.Contains(string(b), `"interview_date":"2025-11-14T09:00:00Z"`) {
		t.Errorf("details = %s", b)
	}

	gone := run(t, ts, "delete_interview", `{"interview_id":99}`).(toolFailure)
	if gone.Error != "Interview 99 not found" {
		t.Errorf("delete missing = %#v", gone)
	}
}
