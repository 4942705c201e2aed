package controllers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"interview-scheduler/middlewares"
	"interview-scheduler/models"
	"interview-scheduler/scheduling"
	"interview-scheduler/utils"
)

type CreateInterviewInput struct {
	CandidateID   uint   `json:"candidate_id" validate:"required"`
	InterviewDate string `json:"interview_date" validate:"required"`
	InterviewTime string `json:"interview_time" validate:"max=20"`
	DayOfWeek     string `json:"day_of_week" validate:"max=20"`
	Status        string `json:"status" validate:"omitempty,oneof=pending confirmed rescheduled cancelled completed"`
	MeetLink      string `json:"meet_link" validate:"omitempty,url,max=500"`
	Notes         string `json:"notes"`
}

type UpdateInterviewInput struct {
	InterviewDate *string `json:"interview_date"`
	InterviewTime *string `json:"interview_time" validate:"omitempty,max=20"`
	DayOfWeek     *string `json:"day_of_week" validate:"omitempty,max=20"`
	Status        *string `json:"status" validate:"omitempty,oneof=pending confirmed rescheduled cancelled completed"`
	MeetLink      *string `json:"meet_link" validate:"omitempty,max=500"`
	Notes         *string `json:"notes"`
	EmailSent     *bool   `json:"email_sent"`
}

func parseInterviewDate(raw string) (time.Time, error) {
	t, err := utils.ParseDateTime(raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid interview_date")
	}
	return t, nil
}

// GetInterviews lists interviews, optionally filtered by candidate, status and date range.
func (a *API) GetInterviews(c *fiber.Ctx) error {
	from, err := queryTime(c, "from")
	if err != nil {
		return err
	}
	to, err := queryEndOfDay(c, "to")
	if err != nil {
		return err
	}
	f := scheduling.ListFilter{From: from, To: to, Limit: utils.ParseIntDefault(c.Query("limit"), 0)}
	if raw := c.Query("candidate_id"); raw != "" {
		id, ok := utils.ParseID(raw)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid candidate_id")
		}
		f.CandidateID = id
	}
	if raw := c.Query("status"); raw != "" {
		st, ok := models.ParseInterviewStatus(raw)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "invalid status")
		}
		f.Status = st
	}

	interviews, err := a.Scheduling.ListInterviews(c.UserContext(), f)
	if err != nil {
		return err
	}
	if interviews == nil {
		interviews = []models.Interview{}
	}
	return c.JSON(fiber.Map{
		"interviews": interviews,
		"message":    "success",
	})
}

func (a *API) CreateInterview(c *fiber.Ctx) error {
	var in CreateInterviewInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	at, err := parseInterviewDate(in.InterviewDate)
	if err != nil {
		return err
	}
	iv, err := a.Scheduling.Schedule(c.UserContext(), scheduling.ScheduleRequest{
		CandidateID:   in.CandidateID,
		InterviewDate: at,
		InterviewTime: in.InterviewTime,
		DayOfWeek:     in.DayOfWeek,
		Status:        models.InterviewStatus(in.Status),
		MeetLink:      in.MeetLink,
		Notes:         in.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(iv)
}

// UpdateInterview applies a partial update; moving the interview is conflict-checked.
func (a *API) UpdateInterview(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in UpdateInterviewInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	ch := scheduling.InterviewChanges{
		InterviewTime: in.InterviewTime,
		DayOfWeek:     in.DayOfWeek,
		MeetLink:      in.MeetLink,
		Notes:         in.Notes,
		EmailSent:     in.EmailSent,
	}
	if in.InterviewDate != nil && strings.TrimSpace(*in.InterviewDate) != "" {
		at, err := parseInterviewDate(*in.InterviewDate)
		if err != nil {
			return err
		}
		ch.InterviewDate = &at
	}
	if in.Status != nil {
		st := models.InterviewStatus(*in.Status)
		ch.Status = &st
	}

	iv, err := a.Scheduling.Reschedule(c.UserContext(), id, ch)
	if err != nil {
		return err
	}
	return c.JSON(iv)
}

func (a *API) DeleteInterview(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Scheduling.Cancel(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}
