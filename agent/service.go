package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// AnonymousActor keys pending confirmations when no identity is known.
const AnonymousActor = "anonymous"

// ConfirmationPrefix introduces an approval token in a user message.
const ConfirmationPrefix = "CONFIRMED:"

const failureText = "Sorry, something went wrong while processing your request. Nothing further was changed; please try again."

const systemPrompt = `You are the scheduling assistant for a recruiting team.
You work directly against the candidate and interview records through the provided tools.

## CAPABILITIES
- Candidates: search, look up, add, update.
- Schedule: check availability, book and cancel interviews, list upcoming interviews.
- Email: write drafts for a recruiter to review.

## RULES
1. Use the tools. Never invent candidates, ids or times.
2. Keep answers short and professional.
3. Creating or updating candidates and booking or deleting interviews needs the user's explicit approval; call the tool and the system will ask for it.
4. Times are wall-clock times without a time zone, formatted YYYY-MM-DDTHH:MM:SS.`

type ToolOutput struct {
	Tool   string `json:"tool"`
	Output any    `json:"output"`
}

// ConfirmationRequest asks the human to approve one sensitive tool call by
// replying "CONFIRMED: <confirmation_id>".
type ConfirmationRequest struct {
	Tool           string          `json:"tool"`
	Args           json.RawMessage `json:"args"`
	ConfirmationID string          `json:"confirmation_id"`
	Message        string          `json:"message"`
}

type Meta struct {
	ToolOutputs         []ToolOutput         `json:"tool_outputs"`
	ConfirmationRequest *ConfirmationRequest `json:"confirmation_request"`
}

type Response struct {
	Content string `json:"content"`
	Meta    Meta   `json:"meta"`
}

// Service runs one tool-calling turn per inbound message.
type Service struct {
	llm   LLMClient
	tools *Toolset
	gate  *Gate
	log   zerolog.Logger
	now   func() time.Time
}

type ServiceOption func(*Service)

func WithServiceLogger(lg zerolog.Logger) ServiceOption {
	return func(s *Service) { s.log = lg }
}

func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(llm LLMClient, tools *Toolset, gate *Gate, opts ...ServiceOption) *Service {
	s := &Service{
		llm:   llm,
		tools: tools,
		gate:  gate,
		log:   zerolog.Nop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessMessage answers the latest message in history on behalf of actor.
// Sensitive tool calls run only when the latest user message carries the
// token of a matching proposal; otherwise the turn stops with a
// confirmation request. Failures are logged and turned into an apology.
func (s *Service) ProcessMessage(ctx context.Context, history []Message, actor string) Response {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		actor = AnonymousActor
	}
	lg := s.log.With().Str("actor", actor).Logger()

	resp, err := s.process(ctx, history, actor, lg)
	if err != nil {
		lg.Error().Err(err).Msg("agent turn failed")
		return Response{Content: failureText, Meta: Meta{ToolOutputs: []ToolOutput{}}}
	}
	return resp
}

func (s *Service) process(ctx context.Context, history []Message, actor string, lg zerolog.Logger) (Response, error) {
	meta := Meta{ToolOutputs: []ToolOutput{}}
	messages := make([]Message, 0, len(history)+8)
	messages = append(messages, Message{
		Role:    "system",
		Content: systemPrompt + "\nCurrent Time: " + s.now().Format("2006-01-02 15:04:05"),
	})
	messages = append(messages, history...)

	first, err := s.llm.Chat(ctx, messages, s.tools.Definitions())
	if err != nil {
		return Response{}, fmt.Errorf("llm: %w", err)
	}
	if len(first.ToolCalls) == 0 {
		return Response{Content: first.Content, Meta: meta}, nil
	}

	token := confirmationToken(history)
	for _, call := range first.ToolCalls {
		name := call.Function.Name
		if !IsSensitive(name) {
			continue
		}
		args := json.RawMessage(call.Function.Arguments)
		ok, err := s.gate.TryApprove(ctx, actor, token, name, args)
		if err != nil {
			return Response{}, fmt.Errorf("confirmation store: %w", err)
		}
		if ok {
			lg.Info().Str("tool", name).Str("args", string(canonicalJSON(args))).Msg("sensitive tool approved")
			continue
		}

		newToken, err := s.gate.Propose(ctx, actor, name, args)
		if err != nil {
			return Response{}, fmt.Errorf("confirmation store: %w", err)
		}
		lg.Info().Str("tool", name).Bool("token_presented", token != "").Msg("sensitive tool needs confirmation")
		meta.ConfirmationRequest = &ConfirmationRequest{
			Tool:           name,
			Args:           displayArgs(args),
			ConfirmationID: newToken,
			Message:        fmt.Sprintf("I need to %s: %s", strings.ReplaceAll(name, "_", " "), canonicalJSON(args)),
		}
		return Response{
			Content: fmt.Sprintf("I need your permission to execute %s.", name),
			Meta:    meta,
		}, nil
	}

	messages = append(messages, Message{
		Role:      "assistant",
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	inv := Invocation{Actor: actor}
	for _, call := range first.ToolCalls {
		name := call.Function.Name
		args := json.RawMessage(call.Function.Arguments)

		var output any
		if handler, ok := s.tools.Lookup(name); ok {
			output, err = handler(ctx, inv, args)
			if err != nil {
				return Response{}, fmt.Errorf("tool %s with args %s: %w", name, canonicalJSON(args), err)
			}
			meta.ToolOutputs = append(meta.ToolOutputs, ToolOutput{Tool: name, Output: output})
		} else {
			lg.Warn().Str("tool", name).Msg("model called an unknown tool")
			output = map[string]string{"error": fmt.Sprintf("Function %s not found", name)}
		}

		content, err := json.Marshal(output)
		if err != nil {
			return Response{}, fmt.Errorf("encode %s output: %w", name, err)
		}
		messages = append(messages, Message{
			Role:       "tool",
			Name:       name,
			Content:    string(content),
			ToolCallID: call.ID,
		})
	}

	final, err := s.llm.Chat(ctx, messages, nil)
	if err != nil {
		return Response{}, fmt.Errorf("llm: %w", err)
	}
	return Response{Content: final.Content, Meta: meta}, nil
}

// confirmationToken extracts the token from the latest user message, or ""
// when that message is not a confirmation.
func confirmationToken(history []Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != "user" {
			continue
		}
		text := strings.TrimSpace(history[i].Content)
		if !strings.HasPrefix(text, ConfirmationPrefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(text, ConfirmationPrefix))
	}
	return ""
}

// displayArgs is the canonical argument object, or the raw text as a JSON
// string when the model produced invalid JSON.
func displayArgs(args json.RawMessage) json.RawMessage {
	canonical := canonicalJSON(args)
	if json.Valid(canonical) {
		return canonical
	}
	quoted, _ := json.Marshal(string(canonical))
	return quoted
}
