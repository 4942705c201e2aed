package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"interview-scheduler/database"
	"interview-scheduler/models"
	"interview-scheduler/scheduling"
	"interview-scheduler/utils"
)

type ToolName string

const (
	ToolSearchCandidates    ToolName = "search_candidates"
	ToolGetCandidateDetails ToolName = "get_candidate_details"
	ToolAddCandidate        ToolName = "add_candidate"
	ToolUpdateCandidate     ToolName = "update_candidate"
	ToolCheckAvailability   ToolName = "check_availability"
	ToolScheduleInterview   ToolName = "schedule_interview"
	ToolDeleteInterview     ToolName = "delete_interview"
	ToolGetSchedule         ToolName = "get_schedule"
	ToolDraftEmail          ToolName = "draft_email"
)

// sensitiveTools need an approved confirmation before they run.
var sensitiveTools = map[ToolName]bool{
	ToolAddCandidate:      true,
	ToolUpdateCandidate:   true,
	ToolScheduleInterview: true,
	ToolDeleteInterview:   true,
}

func IsSensitive(name string) bool {
	return sensitiveTools[ToolName(name)]
}

// DefaultSender is the draft sender when the actor is anonymous.
const DefaultSender = "agent@system.local"

const slotLayout = "2006-01-02T15:04:05"

var validate = validator.New()

// Invocation identifies who a tool runs for.
type Invocation struct {
	Actor string
}

// ToolHandler returns the JSON-serializable output fed back to the model.
// Expected failures are reported inside the output; a returned error means
// a collaborator failed.
type ToolHandler func(ctx context.Context, inv Invocation, args json.RawMessage) (any, error)

// DraftWriter persists email drafts.
type DraftWriter interface {
	CreateDraft(ctx context.Context, d *models.Draft) error
}

// Toolset is the closed mapping from tool name to definition and handler.
type Toolset struct {
	defs     []ToolDefinition
	handlers map[ToolName]ToolHandler
}

// NewToolset binds every catalog entry to its handler. A catalog entry
// without a handler, or a handler without a catalog entry, is an error.
func NewToolset(svc *scheduling.Service, drafts DraftWriter) (*Toolset, error) {
	h := &toolHandlers{svc: svc, drafts: drafts}
	return newToolset(catalog, map[ToolName]ToolHandler{
		ToolSearchCandidates:    h.searchCandidates,
		ToolGetCandidateDetails: h.getCandidateDetails,
		ToolAddCandidate:        h.addCandidate,
		ToolUpdateCandidate:     h.updateCandidate,
		ToolCheckAvailability:   h.checkAvailability,
		ToolScheduleInterview:   h.scheduleInterview,
		ToolDeleteInterview:     h.deleteInterview,
		ToolGetSchedule:         h.getSchedule,
		ToolDraftEmail:          h.draftEmail,
	})
}

func newToolset(defs []ToolDefinition, handlers map[ToolName]ToolHandler) (*Toolset, error) {
	seen := make(map[ToolName]bool, len(defs))
	for _, d := range defs {
		name := ToolName(d.Function.Name)
		if seen[name] {
			return nil, fmt.Errorf("tool %q defined twice", name)
		}
		seen[name] = true
		if handlers[name] == nil {
			return nil, fmt.Errorf("tool %q has no handler", name)
		}
	}
	for name := range handlers {
		if !seen[name] {
			return nil, fmt.Errorf("handler %q is not in the tool catalog", name)
		}
	}
	for name := range sensitiveTools {
		if !seen[name] {
			return nil, fmt.Errorf("sensitive tool %q is not in the tool catalog", name)
		}
	}
	return &Toolset{defs: defs, handlers: handlers}, nil
}

func (t *Toolset) Definitions() []ToolDefinition { return t.defs }

// Lookup returns the handler for name, or false for a name outside the catalog.
func (t *Toolset) Lookup(name string) (ToolHandler, bool) {
	h, ok := t.handlers[ToolName(name)]
	return h, ok
}

// toolFailure is the structured output for an expected failure.
type toolFailure struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Conflicts []string `json:"conflicts,omitempty"`
	ID        uint     `json:"id,omitempty"`
}

func failure(msg string) toolFailure { return toolFailure{Error: msg} }

// expected converts domain outcomes into tool output. ok is false for
// collaborator failures, which the caller must propagate.
func expected(err error) (out toolFailure, ok bool) {
	var (
		conflict *scheduling.ConflictError
		inv      *scheduling.InvalidArgumentError
		exists   *scheduling.CandidateExistsError
	)
	switch {
	case errors.As(err, &conflict):
		return toolFailure{Error: "Scheduling conflict", Conflicts: conflict.Reasons}, true
	case errors.Is(err, scheduling.ErrPersistenceConflict):
		return toolFailure{Error: "Slot was just booked by another request, please pick another time"}, true
	case errors.Is(err, scheduling.ErrCandidateNotFound):
		return failure("Candidate not found"), true
	case errors.Is(err, scheduling.ErrInterviewNotFound):
		return failure("Interview not found"), true
	case errors.As(err, &exists):
		return toolFailure{Error: "Candidate already exists", ID: exists.ID}, true
	case errors.As(err, &inv):
		return failure(inv.Error()), true
	}
	return toolFailure{}, false
}

// decodeArgs unmarshals and validates tool arguments. The returned output is
// non-nil when the arguments are unusable.
func decodeArgs(raw json.RawMessage, dst any) *toolFailure {
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		f := failure("invalid arguments: " + err.Error())
		return &f
	}
	if ambiguousKeys(raw) {
		f := failure("invalid arguments: a key is repeated (keys are matched case-insensitively)")
		return &f
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			f := failure("invalid arguments: " + strings.Join(fields, ", "))
			return &f
		}
		f := failure("invalid arguments: " + err.Error())
		return &f
	}
	return nil
}

type toolHandlers struct {
	svc    *scheduling.Service
	drafts DraftWriter
}

type searchArgs struct {
	Query     string `json:"query"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

func (h *toolHandlers) searchCandidates(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a searchArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	found, _, err := h.svc.SearchCandidates(ctx, database.CandidateQuery{
		Query:     a.Query,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Country:   a.Country,
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.CandidateSummary, 0, len(found))
	for i := range found {
		out = append(out, found[i].Summary())
	}
	return out, nil
}

type candidateIDArgs struct {
	CandidateID uint `json:"candidate_id" validate:"required"`
}

func (h *toolHandlers) getCandidateDetails(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a candidateIDArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	c, err := h.svc.GetCandidate(ctx, a.CandidateID)
	if err != nil {
		if f, ok := expected(err); ok {
			return f, nil
		}
		return nil, err
	}
	interviews, err := h.svc.CandidateInterviews(ctx, c.Id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"candidate": c, "interviews": interviews}, nil
}

type addCandidateArgs struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone"`
	Country   string `json:"country"`
}

func (h *toolHandlers) addCandidate(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a addCandidateArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	c, err := h.svc.CreateCandidate(ctx, scheduling.CandidateInput{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Email:     a.Email,
		Phone:     a.Phone,
		Country:   a.Country,
	})
	if err != nil {
		if f, ok := expected(err); ok {
			return f, nil
		}
		return nil, err
	}
	return map[string]any{"success": true, "id": c.Id, "message": "Added " + c.FullName()}, nil
}

type updateCandidateArgs struct {
	CandidateID uint `json:"candidate_id" validate:"required"`
	scheduling.CandidatePatch
}

func (h *toolHandlers) updateCandidate(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a updateCandidateArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	c, changes, err := h.svc.UpdateCandidate(ctx, a.CandidateID, a.CandidatePatch)
	if err != nil {
		if f, ok := expected(err); ok {
			return f, nil
		}
		return nil, err
	}
	if len(changes) == 0 {
		return map[string]any{"success": true, "message": "No changes made."}, nil
	}
	return map[string]any{
		"success":   true,
		"message":   fmt.Sprintf("Updated candidate %d. Changes: %s", c.Id, strings.Join(changes, ", ")),
		"candidate": c,
	}, nil
}

type availabilityArgs struct {
	StartDate          string   `json:"start_date" validate:"required"`
	EndDate            string   `json:"end_date" validate:"required"`
	PreferredTimes     []string `json:"preferred_times"`
	ExcludeCandidateID uint     `json:"exclude_candidate_id"`
}

func (h *toolHandlers) checkAvailability(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a availabilityArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	start, err := utils.ParseDate(a.StartDate)
	if err != nil {
		return failure(err.Error()), nil
	}
	end, err := utils.ParseDate(a.EndDate)
	if err != nil {
		return failure(err.Error()), nil
	}
	slots, err := h.svc.FindSlots(ctx, start, end, a.PreferredTimes, a.ExcludeCandidateID)
	if err != nil {
		if f, ok := expected(err); ok {
			return f, nil
		}
		return nil, err
	}
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Format(slotLayout))
	}
	return out, nil
}

type scheduleArgs struct {
	CandidateID   uint   `json:"candidate_id" validate:"required"`
	InterviewDate string `json:"interview_date"`
	StartTime     string `json:"start_time"`
	InterviewTime string `json:"interview_time"`
	MeetLink      string `json:"meet_link"`
	Notes         string `json:"notes"`
}

func (h *toolHandlers) scheduleInterview(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a scheduleArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	when := a.InterviewDate
	if when == "" {
		when = a.StartTime
	}
	if when == "" {
		return failure("Missing interview_date or start_time argument"), nil
	}
	at, err := utils.ParseDateTime(when)
	if err != nil {
		return failure("Invalid interview_date format"), nil
	}

	iv, err := h.svc.Schedule(ctx, scheduling.ScheduleRequest{
		CandidateID:   a.CandidateID,
		InterviewDate: at,
		InterviewTime: a.InterviewTime,
		MeetLink:      a.MeetLink,
		Notes:         a.Notes,
	})
	if err != nil {
		if f, ok := expected(err); ok {
			return f, nil
		}
		return nil, err
	}
	return map[string]any{
		"success":   true,
		"id":        iv.ID,
		"date":      iv.InterviewDate.Format(slotLayout),
		"interview": iv,
	}, nil
}

type interviewIDArgs struct {
	InterviewID uint `json:"interview_id" validate:"required"`
}

func (h *toolHandlers) deleteInterview(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a interviewIDArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	if err := h.svc.Cancel(ctx, a.InterviewID); err != nil {
		if errors.Is(err, scheduling.ErrInterviewNotFound) {
			return failure(fmt.Sprintf("Interview %d not found", a.InterviewID)), nil
		}
		return nil, err
	}
	return map[string]any{"success": true, "message": fmt.Sprintf("Deleted interview %d", a.InterviewID)}, nil
}

type scheduleListArgs struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=100"`
}

func (h *toolHandlers) getSchedule(ctx context.Context, _ Invocation, raw json.RawMessage) (any, error) {
	var a scheduleListArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	upcoming, err := h.svc.Upcoming(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	if upcoming == nil {
		upcoming = []models.Interview{}
	}
	return upcoming, nil
}

type draftArgs struct {
	RecipientEmail string `json:"recipient_email" validate:"required,email"`
	Subject        string `json:"subject" validate:"required"`
	Content        string `json:"content" validate:"required"`
}

func (h *toolHandlers) draftEmail(ctx context.Context, inv Invocation, raw json.RawMessage) (any, error) {
	var a draftArgs
	if f := decodeArgs(raw, &a); f != nil {
		return *f, nil
	}
	sender := inv.Actor
	if sender == "" || sender == AnonymousActor {
		sender = DefaultSender
	}
	recipients, err := json.Marshal([]map[string]string{{"Email": a.RecipientEmail}})
	if err != nil {
		return nil, err
	}
	d := &models.Draft{
		SenderEmail: sender,
		Subject:     a.Subject,
		HTMLContent: a.Content,
		Recipients:  recipients,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := h.drafts.CreateDraft(ctx, d); err != nil {
		return nil, err
	}
	return map[string]any{
		"success":  true,
		"draft_id": d.ID,
		"message":  fmt.Sprintf("Draft '%s' created for %s. ID: %d", a.Subject, a.RecipientEmail, d.ID),
	}, nil
}
