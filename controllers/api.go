package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"interview-scheduler/agent"
	"interview-scheduler/scheduling"
	"interview-scheduler/utils"
)

// API holds the collaborators every handler needs.
type API struct {
	DB         *gorm.DB // user accounts; nil when running on the in-memory store
	Scheduling *scheduling.Service
	Agent      *agent.Service
	JWTSecret  []byte
	Log        zerolog.Logger
}

func (a *API) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, ok := utils.ParseID(c.Params("id"))
	if !ok {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// queryTime reads an optional date or date-time query parameter.
func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	t, err := utils.ParseDateTime(raw)
	if err != nil {
		if t, err = utils.ParseDate(raw); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
		}
	}
	return &t, nil
}

// queryEndOfDay is queryTime, except a bare date means the end of that day.
func queryEndOfDay(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(name))
	if _, err := time.Parse("2006-01-02", raw); err == nil {
		t, _ := utils.ParseDate(raw)
		end := t.Add(24*time.Hour - time.Nanosecond)
		return &end, nil
	}
	return queryTime(c, name)
}
