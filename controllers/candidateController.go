package controllers

import (
	"github.com/gofiber/fiber/v2"

	"interview-scheduler/database"
	"interview-scheduler/middlewares"
	"interview-scheduler/scheduling"
	"interview-scheduler/utils"
)

const maxPageSize = 100

func (a *API) GetCandidates(c *fiber.Ctx) error {
	limit := utils.ParseIntDefault(c.Query("limit"), scheduling.DefaultSearchLimit)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	q := database.CandidateQuery{
		Query:     c.Query("q"),
		FirstName: c.Query("first_name"),
		LastName:  c.Query("last_name"),
		Email:     c.Query("email"),
		Phone:     c.Query("phone"),
		Country:   c.Query("country"),
		Limit:     limit,
		Offset:    utils.ParseIntDefault(c.Query("offset"), 0),
	}
	candidates, total, err := a.Scheduling.SearchCandidates(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"candidates": candidates,
		"total":      total,
		"message":    "success",
	})
}

// GetCandidate returns the candidate together with all of their interviews.
func (a *API) GetCandidate(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	candidate, err := a.Scheduling.GetCandidate(c.UserContext(), id)
	if err != nil {
		return err
	}
	interviews, err := a.Scheduling.CandidateInterviews(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"candidate":  candidate,
		"interviews": interviews,
	})
}

func (a *API) CreateCandidate(c *fiber.Ctx) error {
	var in scheduling.CandidateInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	candidate, err := a.Scheduling.CreateCandidate(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(candidate)
}

func (a *API) UpdateCandidate(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var patch scheduling.CandidatePatch
	if err := middlewares.BindAndValidate(c, &patch); err != nil {
		return err
	}
	candidate, changes, err := a.Scheduling.UpdateCandidate(c.UserContext(), id, patch)
	if err != nil {
		return err
	}
	if changes == nil {
		changes = []string{}
	}
	return c.JSON(fiber.Map{
		"candidate": candidate,
		"changes":   changes,
	})
}

func (a *API) DeleteCandidate(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if err := a.Scheduling.DeleteCandidate(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "success"})
}
