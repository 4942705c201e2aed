package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"interview-scheduler/middlewares"
	"interview-scheduler/utils"
)

const slotLayout = "2006-01-02T15:04:05"

type ConflictCheckInput struct {
	CandidateID        uint   `json:"candidate_id" validate:"required"`
	InterviewDate      string `json:"interview_date" validate:"required"`
	ExcludeInterviewID uint   `json:"exclude_interview_id"`
}

// AvailableSlots lists free slots between start_date and end_date, both inclusive.
func (a *API) AvailableSlots(c *fiber.Ctx) error {
	start, err := utils.ParseDate(c.Query("start_date"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "start_date must be YYYY-MM-DD")
	}
	end, err := utils.ParseDate(c.Query("end_date"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "end_date must be YYYY-MM-DD")
	}

	var preferred []string
	for _, p := range strings.Split(c.Query("preferred_times"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			preferred = append(preferred, p)
		}
	}
	var exclude uint
	if raw := c.Query("exclude_candidate_id"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid exclude_candidate_id")
		}
		exclude = id
	}

	slots, err := a.Scheduling.FindSlots(c.UserContext(), start, end, preferred, exclude)
	if err != nil {
		return err
	}
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Format(slotLayout)
	}
	return c.JSON(fiber.Map{
		"slots": out,
		"count": len(out),
	})
}

func (a *API) ScheduleSummary(c *fiber.Ctx) error {
	start, err := queryTime(c, "start_date")
	if err != nil {
		return err
	}
	end, err := queryEndOfDay(c, "end_date")
	if err != nil {
		return err
	}
	summary, err := a.Scheduling.Summary(c.UserContext(), start, end)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

// CheckConflicts reports whether a proposed time clashes with the candidate's bookings.
func (a *API) CheckConflicts(c *fiber.Ctx) error {
	var in ConflictCheckInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	at, err := parseInterviewDate(in.InterviewDate)
	if err != nil {
		return err
	}
	conflict, reasons, err := a.Scheduling.CheckConflict(c.UserContext(), in.CandidateID, at, in.ExcludeInterviewID)
	if err != nil {
		return err
	}
	if reasons == nil {
		reasons = []string{}
	}
	return c.JSON(fiber.Map{
		"has_conflict": conflict,
		"reasons":      reasons,
	})
}
