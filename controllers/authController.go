package controllers

import (
	"errors"
	"strings"
	"time"

	"interview-scheduler/middlewares"
	"interview-scheduler/models"
	"interview-scheduler/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RegisterInput struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (a *API) accountsEnabled() error {
	if a.DB == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "user accounts require a database")
	}
	return nil
}

func (a *API) Register(c *fiber.Ctx) error {
	if err := a.accountsEnabled(); err != nil {
		return err
	}
	var in RegisterInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	user := models.User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     utils.NormalizeEmail(in.Email),
	}
	if err := user.SetPassword(in.Password); err != nil {
		return err
	}
	if err := a.DB.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "email already exists",
			})
		}
		return err
	}

	a.Log.Info().Str("user_id", user.Id).Msg("user registered")
	return c.Status(fiber.StatusCreated).JSON(user)
}

func (a *API) Login(c *fiber.Ctx) error {
	if err := a.accountsEnabled(); err != nil {
		return err
	}
	var in LoginInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	err := a.DB.WithContext(c.UserContext()).Where("email = ?", utils.NormalizeEmail(in.Email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid credentials"})
	}
	if err != nil {
		return err
	}
	if err := user.ComparePassword(in.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid credentials"})
	}

	token, err := middlewares.GenerateJWT(a.JWTSecret, user.Id, user.Email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
		},
	})
}

func (a *API) Logout(c *fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}
	c.Cookie(&cookie)
	return c.JSON(fiber.Map{
		"message": "success",
	})
}
