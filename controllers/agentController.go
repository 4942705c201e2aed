package controllers

import (
	"github.com/gofiber/fiber/v2"

	"interview-scheduler/agent"
	"interview-scheduler/middlewares"
)

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatInput struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// Chat runs one agent turn over the supplied conversation. Failures inside the
// turn come back as an apology in Content, never as an HTTP error.
func (a *API) Chat(c *fiber.Ctx) error {
	if a.Agent == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "assistant not configured")
	}
	var in ChatInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	history := make([]agent.Message, len(in.Messages))
	for i, m := range in.Messages {
		history[i] = agent.Message{Role: m.Role, Content: m.Content}
	}
	actor := middlewares.Actor(c)
	if actor == "" {
		actor = agent.AnonymousActor
	}
	return c.JSON(a.Agent.ProcessMessage(c.UserContext(), history, actor))
}
